package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/kalambet/fitai/internal/proxy"
)

// OpenRouterEngine sends chat calls through the OpenRouter completions API.
type OpenRouterEngine struct {
	client      *proxy.Client
	temperature float64
}

// NewOpenRouterEngine creates an OpenRouterEngine. An API key is required.
func NewOpenRouterEngine(apiKey string, temperature float64) (*OpenRouterEngine, error) {
	if apiKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}
	return &OpenRouterEngine{client: proxy.NewClient(apiKey), temperature: temperature}, nil
}

func newOpenRouterEngineWithClient(c *proxy.Client, temperature float64) *OpenRouterEngine {
	return &OpenRouterEngine{client: c, temperature: temperature}
}

func (e *OpenRouterEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	msgs := make([]proxy.Message, len(messages))
	for i, m := range messages {
		msgs[i] = proxy.Message{Role: m.Role, Content: m.Content}
	}
	temp := e.temperature
	req := proxy.CompletionRequest{Model: model, Messages: msgs, Temperature: &temp}
	if jsonSchema != nil {
		req.ResponseFormat = &proxy.ResponseFormat{Type: "json_object"}
	}

	out, err := e.client.Complete(ctx, req)
	if err != nil {
		return "", modelError(ProviderOpenRouter, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", emptyReply(ProviderOpenRouter)
	}
	return out, nil
}

func (e *OpenRouterEngine) IsRunning(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}
