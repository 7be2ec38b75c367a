package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEngine calls the Gemini API through the genai SDK.
type GeminiEngine struct {
	client      *genai.Client
	temperature float32
}

// NewGeminiEngine creates a GeminiEngine. An API key is required.
func NewGeminiEngine(ctx context.Context, apiKey string, temperature float64) (*GeminiEngine, error) {
	return newGeminiEngine(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, temperature)
}

func newGeminiEngine(ctx context.Context, cfg *genai.ClientConfig, temperature float64) (*GeminiEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiEngine{client: client, temperature: float32(temperature)}, nil
}

// Chat maps system messages onto the system instruction and the rest onto
// user/model contents.
func (e *GeminiEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(e.temperature)}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if jsonSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenaiSchema(jsonSchema)
	}

	resp, err := e.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", modelError(ProviderGemini, err)
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return "", emptyReply(ProviderGemini)
	}
	return out, nil
}

// IsRunning reports whether the default model's metadata can be fetched
// with the configured key.
func (e *GeminiEngine) IsRunning(ctx context.Context) bool {
	_, err := e.client.Models.Get(ctx, DefaultModel(ProviderGemini), nil)
	return err == nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genaiType(s.Type),
		Properties: make(map[string]*genai.Schema, len(s.Properties)),
		Required:   s.Required,
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	for name, p := range s.Properties {
		ps := &genai.Schema{Type: genaiType(p.Type), Description: p.Description}
		if !required[name] {
			ps.Nullable = genai.Ptr(true)
		}
		out.Properties[name] = ps
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
