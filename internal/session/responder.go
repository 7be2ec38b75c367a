package session

import (
	"context"
	"strings"

	"github.com/kalambet/fitai/internal/composer"
	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/profile"
)

// Responder produces the assistant's reply to a message.
type Responder interface {
	Respond(ctx context.Context, system string, history []profile.Turn, message string) (string, error)
}

// ModelResponder replies through a language model, replaying the
// composer's history window.
type ModelResponder struct {
	engine   engine.Engine
	model    string
	composer *composer.Composer
}

// NewModelResponder creates a ModelResponder.
func NewModelResponder(e engine.Engine, model string, c *composer.Composer) *ModelResponder {
	return &ModelResponder{engine: e, model: model, composer: c}
}

func (r *ModelResponder) Respond(ctx context.Context, system string, history []profile.Turn, message string) (string, error) {
	out, err := r.engine.Chat(ctx, r.model, r.composer.Messages(system, history, message), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
