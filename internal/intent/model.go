package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/profile"
)

const extractionTimeout = 5 * time.Second

// modelResult is the structured reply expected from the model.
type modelResult struct {
	WeightKG          *float64 `json:"weight_kg"`
	WeightChangeKG    *float64 `json:"weight_change_kg"`
	HeightCM          *float64 `json:"height_cm"`
	Age               *int     `json:"age"`
	ActivityLevel     string   `json:"activity_level"`
	FitnessGoal       string   `json:"fitness_goal"`
	DietaryPreference string   `json:"dietary_preference"`
}

// ModelExtractor asks a language model for structured updates. Any model
// failure falls back to the pattern extractor so Extract never blocks a
// message on the model.
type ModelExtractor struct {
	engine   engine.Engine
	model    string
	fallback Extractor
	summary  func() string
}

// NewModelExtractor creates a ModelExtractor using the given engine and
// model name. summary, when non-nil, supplies current profile text for
// the prompt.
func NewModelExtractor(e engine.Engine, model string, summary func() string) *ModelExtractor {
	return &ModelExtractor{engine: e, model: model, fallback: NewPatternExtractor(), summary: summary}
}

func (x *ModelExtractor) Extract(ctx context.Context, message string) Updates {
	if strings.TrimSpace(message) == "" {
		return Updates{}
	}

	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	var summary string
	if x.summary != nil {
		summary = x.summary()
	}

	raw, err := x.engine.Chat(ctx, x.model, BuildPrompt(message, summary), updateSchema())
	if err != nil {
		slog.Warn("update extraction chat failed, using patterns", "error", err)
		return x.fallback.Extract(ctx, message)
	}

	var result modelResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		slog.Warn("malformed extraction reply, using patterns", "error", err)
		return x.fallback.Extract(ctx, message)
	}
	return result.updates()
}

func (r modelResult) updates() Updates {
	u := make(Updates)
	switch {
	case r.WeightKG != nil && *r.WeightKG > 0:
		u[profile.FieldWeight] = Candidate{Value: formatFloat(*r.WeightKG)}
	case r.WeightChangeKG != nil && *r.WeightChangeKG != 0:
		u[profile.FieldWeight] = Candidate{Value: formatFloat(*r.WeightChangeKG), Relative: true}
	}
	if r.HeightCM != nil && *r.HeightCM > 0 {
		u[profile.FieldHeight] = Candidate{Value: formatFloat(*r.HeightCM)}
	}
	if r.Age != nil && *r.Age > 0 {
		u[profile.FieldAge] = Candidate{Value: strconv.Itoa(*r.Age)}
	}
	if v := strings.TrimSpace(r.ActivityLevel); v != "" {
		if v = capitalize(v); inDomain(v, profile.ActivityLevels) {
			u[profile.FieldActivity] = Candidate{Value: v}
		}
	}
	if v := matchDomain(r.FitnessGoal, profile.FitnessGoals); v != "" {
		u[profile.FieldGoal] = Candidate{Value: v}
	}
	if v := matchDomain(r.DietaryPreference, profile.DietaryPreferences); v != "" {
		u[profile.FieldDiet] = Candidate{Value: v}
	}
	return u
}

// matchDomain returns the domain member equal to v ignoring case, or "".
func matchDomain[T ~string](v string, domain []T) string {
	v = strings.TrimSpace(v)
	for _, d := range domain {
		if strings.EqualFold(string(d), v) {
			return string(d)
		}
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// stripFences removes a ```json fence some models wrap around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
