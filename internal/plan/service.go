package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/fitai/internal/profile"
)

// ErrRegeneration means new plans could not be produced. Existing plans are
// left untouched when it is returned.
var ErrRegeneration = errors.New("plan regeneration failed")

// Service owns plan replacement for a profile.
type Service struct {
	gen   Generator
	store profile.Gateway
	clock profile.Clock
}

// NewService creates a Service that generates with gen and saves through store.
func NewService(gen Generator, store profile.Gateway) *Service {
	return &Service{gen: gen, store: store, clock: profile.RealClock()}
}

// WithClock overrides the timestamp source (for testing).
func (s *Service) WithClock(c profile.Clock) *Service {
	s.clock = c
	return s
}

// Regenerate replaces both plans from the current profile and persists. p
// takes the new plans only once they are saved: a generation failure returns
// ErrRegeneration and a save failure profile.ErrPersistence, with p
// unchanged in both cases.
func (s *Service) Regenerate(ctx context.Context, p *profile.Profile) error {
	workout, diet, err := s.gen.Generate(ctx, p.Clone())
	if err != nil {
		slog.Warn("plan generation failed, keeping existing plans", "profile", p.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrRegeneration, err)
	}
	if strings.TrimSpace(workout) == "" || strings.TrimSpace(diet) == "" {
		slog.Warn("plan generation returned empty text, keeping existing plans", "profile", p.ID)
		return fmt.Errorf("%w: empty plan text", ErrRegeneration)
	}

	now := s.clock.Now()
	next := p.Clone()
	next.SetPlan(profile.WorkoutPlan, profile.Plan{Text: workout, UpdatedAt: now})
	next.SetPlan(profile.DietPlan, profile.Plan{Text: diet, UpdatedAt: now})

	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", profile.ErrPersistence, err)
	}
	p.Workout, p.Diet = next.Workout, next.Diet
	return nil
}

// Import replaces one plan with externally supplied text.
func (s *Service) Import(ctx context.Context, p *profile.Profile, kind profile.PlanKind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("imported plan is empty")
	}
	if kind != profile.WorkoutPlan && kind != profile.DietPlan {
		return fmt.Errorf("unknown plan kind %q", kind)
	}
	next := p.Clone()
	next.SetPlan(kind, profile.Plan{Text: text, UpdatedAt: s.clock.Now()})
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", profile.ErrPersistence, err)
	}
	p.SetPlan(kind, *next.Plan(kind))
	return nil
}
