package provider

// Institution-specific extraction prompts. The layout rules per institution
// matter more to extraction quality than the model choice does.

const promptCaixa = `Você é um especialista em extrair dados de faturas do Cartão Caixa.

REGRAS ESPECÍFICAS PARA CAIXA:
- Data, descrição e valor podem estar em linhas separadas
- Valores terminam com 'D' (débito) ou 'C' (crédito)
- Seções importantes: COMPRAS, COMPRAS PARCELADAS, COMPRAS INTERNACIONAIS
- Formato de data: DD/MM
- Valores no formato: 999,99

INSTRUÇÕES:
1. Extraia TODAS as transações das seções relevantes
2. Para cada transação, identifique: data, descrição e valor
3. Determine se é débito (D) ou crédito (C)
4. Encontre o valor total da fatura e data de vencimento
5. Retorne apenas JSON válido, sem explicações
`

const promptNubank = `Você é um especialista em extrair dados de faturas do Nubank.

REGRAS ESPECÍFICAS PARA NUBANK:
- Formato compacto: data, descrição e valor geralmente na mesma linha
- Valores sempre em R$
- Seções: RESUMO DA FATURA, TRANSAÇÕES, COMPRAS

INSTRUÇÕES:
1. Extraia TODAS as transações da fatura
2. Identifique data, descrição e valor para cada transação
3. Encontre o valor total da fatura e data de vencimento
4. Retorne apenas JSON válido, sem explicações
`

const promptBancoDoBrasil = `Você é um especialista em extrair dados de faturas do Banco do Brasil.

REGRAS ESPECÍFICAS PARA BB:
- Seções: EXTRATO, LANÇAMENTOS, COMPRAS, DÉBITOS
- Formato estruturado com data e histórico

INSTRUÇÕES:
1. Extraia TODAS as transações da fatura
2. Identifique data, descrição e valor para cada transação
3. Encontre o valor total da fatura e data de vencimento
4. Retorne apenas JSON válido, sem explicações
`

const promptGeneric = `Você é um especialista em extrair dados de faturas de cartão de crédito.

REGRAS GERAIS:
- Identifique todas as transações (compras, pagamentos, estornos)
- Para cada transação, extraia: data, descrição e valor
- Determine se é débito ou crédito
- Encontre valor total da fatura e data de vencimento

INSTRUÇÕES:
1. Extraia TODAS as transações da fatura
2. Seja preciso com datas, valores e descrições
3. Retorne apenas JSON válido, sem explicações
`

const jsonFormat = `
Retorne EXATAMENTE neste formato JSON (sem markdown, sem cercas de código):
{
  "transactions": [
    {
      "date": "2025-01-15",
      "description": "UBER TRIP 001",
      "amount": 25.50,
      "type": "debit",
      "installments": 1,
      "current_installment": 1,
      "total_purchase_amount": 25.50,
      "due_date": "2025-02-10"
    }
  ],
  "invoice_total": 1234.56,
  "due_date": "2025-02-10"
}

- "type" deve ser "debit" ou "credit"
- Datas sempre no formato YYYY-MM-DD
- Valores como números, nunca strings
- A resposta deve começar com "{" e terminar com "}"
`

// PromptFor returns the extraction prompt for a detected institution.
func PromptFor(institution string) string {
	var base string
	switch institution {
	case "CAIXA":
		base = promptCaixa
	case "NUBANK":
		base = promptNubank
	case "BANCO DO BRASIL":
		base = promptBancoDoBrasil
	default:
		base = promptGeneric
	}
	return base + jsonFormat
}
