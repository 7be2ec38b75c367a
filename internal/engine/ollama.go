package engine

import (
	"context"
	"io"
	"strings"

	"github.com/kalambet/fitai/internal/ollama"
)

// OllamaEngine adapts the internal/ollama.Client to the Engine interface.
type OllamaEngine struct {
	client *ollama.Client
}

// NewOllamaEngine creates an OllamaEngine backed by an Ollama server at baseURL.
func NewOllamaEngine(baseURL string, temperature float64) *OllamaEngine {
	return &OllamaEngine{client: ollama.New(baseURL).WithOptions(ollama.Options{Temperature: temperature})}
}

func (e *OllamaEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	var s *ollama.Schema
	if jsonSchema != nil {
		s = &ollama.Schema{Type: jsonSchema.Type, Required: jsonSchema.Required}
		if jsonSchema.Properties != nil {
			s.Properties = make(map[string]ollama.SchemaProperty, len(jsonSchema.Properties))
			for k, v := range jsonSchema.Properties {
				s.Properties[k] = ollama.SchemaProperty{Type: v.Type, Description: v.Description}
			}
		}
	}

	out, err := e.client.Chat(ctx, model, msgs, s)
	if err != nil {
		return "", modelError(ProviderOllama, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", emptyReply(ProviderOllama)
	}
	return out, nil
}

func (e *OllamaEngine) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}

// EnsureReady pulls and warms the model on the backing server.
func (e *OllamaEngine) EnsureReady(ctx context.Context, model string, w io.Writer) error {
	return ollama.EnsureReady(ctx, e.client, model, w)
}
