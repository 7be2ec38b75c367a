package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrModel wraps every failure of a language-model call: transport errors,
// provider errors and empty replies alike.
var ErrModel = errors.New("language model call failed")

// Engine abstracts a chat-capable model provider. Consumers such as intent
// extraction, plan generation and the conversation responder depend on
// this interface instead of a concrete client.
type Engine interface {
	// Chat sends messages to the given model and returns the reply text.
	// When jsonSchema is non-nil, structured JSON output is requested.
	Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error)

	// IsRunning reports whether the provider is reachable.
	IsRunning(ctx context.Context) bool
}

// Provider names accepted by Open.
const (
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// DefaultModel returns the chat model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "llama3.2"
	case ProviderOpenRouter:
		return "google/gemini-2.5-flash-lite"
	default:
		return "gemini-2.5-flash-lite"
	}
}

// Options selects and configures a provider.
type Options struct {
	Provider         string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	OllamaBaseURL    string
	Temperature      float64
}

// Open returns the Engine for opts.Provider.
func Open(ctx context.Context, opts Options) (Engine, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGemini, "":
		return NewGeminiEngine(ctx, opts.GeminiAPIKey, opts.Temperature)
	case ProviderOllama:
		return NewOllamaEngine(opts.OllamaBaseURL, opts.Temperature), nil
	case ProviderOpenRouter:
		return NewOpenRouterEngine(opts.OpenRouterAPIKey, opts.Temperature)
	}
	return nil, fmt.Errorf("unknown model provider %q (want %s, %s or %s)",
		opts.Provider, ProviderGemini, ProviderOllama, ProviderOpenRouter)
}

func modelError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrModel, provider, err)
}

func emptyReply(provider string) error {
	return fmt.Errorf("%w: %s: empty reply", ErrModel, provider)
}
