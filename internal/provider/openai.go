package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/domain"
)

const (
	openAIEndpoint   = "https://api.openai.com/v1/chat/completions"
	deepSeekEndpoint = "https://api.deepseek.com/v1/chat/completions"

	// Cleaned invoice text is truncated before being sent to the model.
	chatTextLimit = 12000
)

// ChatClient talks to an OpenAI-compatible chat completions API. OpenAI and
// DeepSeek share the wire format, so both run through this client.
type ChatClient struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAI(cfg config.ProviderConfig) *ChatClient {
	return &ChatClient{
		name:       "openai",
		endpoint:   openAIEndpoint,
		apiKey:     cfg.OpenAIAPIKey,
		model:      "gpt-4o-mini",
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func NewDeepSeek(cfg config.ProviderConfig) *ChatClient {
	return &ChatClient{
		name:       "deepseek",
		endpoint:   deepSeekEndpoint,
		apiKey:     cfg.DeepSeekAPIKey,
		model:      "deepseek-chat",
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *ChatClient) Name() string {
	return c.name
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) ExtractTransactions(ctx context.Context, input Input) (*Extraction, error) {
	text := input.Text
	if len(text) > chatTextLimit {
		text = text[:chatTextLimit]
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: PromptFor(input.Institution)},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
		MaxTokens:   4096,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %d: %s", c.name, resp.StatusCode, detail)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", c.name, err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s: %w", c.name, domain.ErrEmptyModelResponse)
	}

	p, err := parsePayload(chat.Choices[0].Message.Content, c.name)
	if err != nil {
		return nil, err
	}

	return p.toExtraction()
}
