// Package extractor turns OCR text into payment fields with an LLM.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/joern1811/wapay/internal/domain"
)

const (
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel   = "llama-3.3-70b-versatile"
)

var (
	ErrEmptyText     = errors.New("no text to extract from")
	ErrEmptyResponse = errors.New("model returned no answer")
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAIExtractor uses an OpenAI-compatible chat completions API.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

func NewOpenAIExtractor(cfg OpenAIConfig) *OpenAIExtractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (domain.PaymentFields, error) {
	if strings.TrimSpace(text) == "" {
		return domain.PaymentFields{}, ErrEmptyText
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(text)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return domain.PaymentFields{}, fmt.Errorf("extracting payment fields: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.PaymentFields{}, ErrEmptyResponse
	}

	return decodeAnswer(resp.Choices[0].Message.Content)
}
