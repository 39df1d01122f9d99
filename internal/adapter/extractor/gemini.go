package extractor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/joern1811/wapay/internal/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (e *GeminiExtractor) Extract(ctx context.Context, text string) (domain.PaymentFields, error) {
	if strings.TrimSpace(text) == "" {
		return domain.PaymentFields{}, ErrEmptyText
	}

	temp := float32(0)
	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		genai.Text(userPrompt(text)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       &temp,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return domain.PaymentFields{}, fmt.Errorf("extracting payment fields: %w", err)
	}

	answer := resp.Text()
	if strings.TrimSpace(answer) == "" {
		return domain.PaymentFields{}, ErrEmptyResponse
	}
	return decodeAnswer(answer)
}
