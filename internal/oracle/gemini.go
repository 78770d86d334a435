package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/telegrana/internal/config"
	"google.golang.org/genai"
)

// GeminiBackend calls the Gemini API in JSON response mode.
type GeminiBackend struct {
	client          *genai.Client
	temperature     float32
	maxOutputTokens int32
}

// NewGeminiBackend creates a Gemini API client from configuration.
func NewGeminiBackend(ctx context.Context, cfg config.GeminiConfig) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: cfg.APIVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiBackend: create genai client: %w", err)
	}
	return &GeminiBackend{
		client:          client,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// Generate implements Backend.
func (g *GeminiBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  g.maxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("generate content: %w: %v", ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate content: empty response from %s", model)
	}
	return text, nil
}

// isQuotaError recognises rate limiting and exhausted quotas.
func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}

var _ Backend = (*GeminiBackend)(nil)
