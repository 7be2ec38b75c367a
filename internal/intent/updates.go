package intent

import (
	"context"

	"github.com/kalambet/fitai/internal/profile"
)

// Candidate is one unvalidated field value found in a message. Relative
// candidates carry a signed delta to apply to the current value.
type Candidate struct {
	Value    string
	Relative bool
}

// Updates maps each field to the candidate the message stated for it. A
// field appears at most once.
type Updates map[profile.Field]Candidate

// Fields returns the fields present, in canonical order.
func (u Updates) Fields() []profile.Field {
	var out []profile.Field
	for _, f := range profile.Fields() {
		if _, ok := u[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Extractor finds candidate profile updates in free text. Extract never
// fails; a message with nothing recognizable yields an empty Updates.
type Extractor interface {
	Extract(ctx context.Context, message string) Updates
}
