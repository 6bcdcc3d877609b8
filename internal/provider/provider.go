package provider

import (
	"context"
	"fmt"

	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/shopspring/decimal"
)

// Input carries everything a provider may need. Chat-based providers consume
// the cleaned text; Gemini receives the PDF bytes directly.
type Input struct {
	Text        string
	Institution string
	PDF         []byte
}

// Extraction is the structured output of one model call. InvoiceTotal is nil
// when the model did not report a total; the sum-validation rule is skipped
// in that case.
type Extraction struct {
	Transactions []domain.Transaction
	InvoiceTotal *decimal.Decimal
	DueDate      domain.Date
}

type Provider interface {
	ExtractTransactions(ctx context.Context, input Input) (*Extraction, error)
	Name() string
}

// New builds the provider selected by configuration.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "openai":
		return NewOpenAI(cfg), nil
	case "deepseek":
		return NewDeepSeek(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownProvider, cfg.Name, List())
	}
}

func List() []string {
	return []string{"openai", "deepseek", "gemini"}
}
