package categorization

import (
	"testing"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/stretchr/testify/assert"
)

func txWithDescription(description string) domain.Transaction {
	return domain.Transaction{Description: description}
}

func TestCategorize_RuleMatches(t *testing.T) {
	cases := []struct {
		description string
		category    string
	}{
		{"IFOOD *RESTAURANTE XYZ", "Alimentação"},
		{"UBER EATS PEDIDO 123", "Alimentação"},
		{"UBER TRIP 004", "Transporte"},
		{"POSTO SHELL GASOLINA", "Transporte"},
		{"NETFLIX.COM", "Streaming"},
		{"SPOTIFY AB", "Streaming"},
		{"AMAZON MARKETPLACE", "Shopping"},
		{"DROGARIA SAO PAULO", "Saúde"},
		{"PETLOVE RACAO", "Pet"},
	}

	c := NewCategorizer()
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			result := c.Categorize(txWithDescription(tc.description))
			assert.Equal(t, tc.category, result.Category)
			assert.Equal(t, 0.6, result.Confidence)
			assert.Equal(t, MethodRuleBased, result.Method)
		})
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	c := NewCategorizer()
	result := c.Categorize(txWithDescription("NeTfLiX Assinatura"))
	assert.Equal(t, "Streaming", result.Category)
}

func TestCategorize_UberEatsBeatsUber(t *testing.T) {
	c := NewCategorizer()
	result := c.Categorize(txWithDescription("UBER EATS SP"))
	assert.Equal(t, "Alimentação", result.Category)
}

func TestCategorize_NoMatch(t *testing.T) {
	c := NewCategorizer()
	result := c.Categorize(txWithDescription("PAGAMENTO RECEBIDO"))
	assert.Empty(t, result.Category)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, MethodNoSuitableCategory, result.Method)
}
