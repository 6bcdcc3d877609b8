package provider

import (
	"context"
	"fmt"

	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"google.golang.org/genai"
)

// GeminiProvider sends the PDF itself to the model as inline data instead of
// relying on local text extraction; Gemini reads the document natively.
// Credentials come from the GEMINI_API_KEY / GOOGLE_API_KEY environment, as
// resolved by the genai SDK.
type GeminiProvider struct {
	model string
}

func NewGemini(cfg config.ProviderConfig) *GeminiProvider {
	return &GeminiProvider{model: cfg.GeminiModel}
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) ExtractTransactions(ctx context.Context, input Input) (*Extraction, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: PromptFor(input.Institution)},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     input.PDF,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("gemini: %w", domain.ErrEmptyModelResponse)
	}

	p, err := parsePayload(rawText, "gemini")
	if err != nil {
		return nil, err
	}

	return p.toExtraction()
}
