package categorization

import (
	"strings"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
)

const (
	MethodRuleBased          = "rule_based"
	MethodNoSuitableCategory = "no_suitable_category"

	ruleConfidence = 0.6
)

// Result is the outcome of categorizing a single transaction. Category is
// empty when no rule matched.
type Result struct {
	Category   string
	Confidence float64
	Method     string
}

// rules maps a category to the description keywords that assign it. Order
// matters: more specific keywords come before generic ones, so "uber eats"
// lands in Alimentação before "uber" can claim it for Transporte.
var rules = []struct {
	category string
	keywords []string
}{
	{"Alimentação", []string{"ifood", "rappi", "uber eats", "mcdonalds", "burger", "pizza", "restaurante", "lanche", "comida", "food"}},
	{"Transporte", []string{"uber", "99", "taxi", "metro", "onibus", "gasolina", "combustivel", "estacionamento", "pedagio"}},
	{"Streaming", []string{"netflix", "spotify", "disney", "hbo", "prime", "youtube", "music", "video"}},
	{"Shopping", []string{"amazon", "mercadolivre", "magazine", "loja", "store", "shop", "mall", "centro comercial"}},
	{"Saúde", []string{"farmacia", "drogaria", "hospital", "medico", "consulta", "exame", "plano de saude"}},
	{"Pet", []string{"pet", "petlove", "pet shop", "veterinario", "racao", "cachorro", "gato", "animal"}},
}

// Categorizer assigns spending categories to transactions using keyword rules
// against the transaction description.
type Categorizer struct{}

func NewCategorizer() *Categorizer {
	return &Categorizer{}
}

func (c *Categorizer) Categorize(tx domain.Transaction) Result {
	description := strings.ToLower(tx.Description)

	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(description, keyword) {
				return Result{
					Category:   rule.category,
					Confidence: ruleConfidence,
					Method:     MethodRuleBased,
				}
			}
		}
	}

	return Result{Method: MethodNoSuitableCategory}
}
