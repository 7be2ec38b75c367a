package plan

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/profile"
)

// Generator produces a workout and a diet plan for a profile. Either both
// texts are returned or an error is.
type Generator interface {
	Generate(ctx context.Context, p profile.Profile) (workout, diet string, err error)
}

const workoutPrompt = `Based on the following user profile, generate a personalized WORKOUT PLAN.
Make it detailed, realistic, and tailored specifically to this individual.

USER PROFILE:
%s

Write a weekly workout schedule with specific exercises, sets, reps, and rest periods.
Align it with the user's fitness goal and take their BMI category and activity level into account.
Respond in Markdown. Do not include a diet plan.`

const dietPrompt = `Based on the following user profile, generate a personalized DIET PLAN.
Make it detailed, realistic, and tailored specifically to this individual.

USER PROFILE:
%s

Write a daily meal plan with specific food recommendations and macronutrient targets.
Respect the dietary preference strictly, align it with the fitness goal, and take the BMI category into account.
Respond in Markdown. Do not include a workout plan.`

// ModelGenerator asks a language model for each plan. The two prompts run
// concurrently; the first failure cancels the other.
type ModelGenerator struct {
	engine engine.Engine
	model  string
}

// NewModelGenerator creates a ModelGenerator for the given engine and model.
func NewModelGenerator(e engine.Engine, model string) *ModelGenerator {
	return &ModelGenerator{engine: e, model: model}
}

func (g *ModelGenerator) Generate(ctx context.Context, p profile.Profile) (string, string, error) {
	summary := profile.Summary(p)
	var workout, diet string

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.ask(egCtx, fmt.Sprintf(workoutPrompt, summary))
		if err != nil {
			return fmt.Errorf("workout plan: %w", err)
		}
		workout = out
		return nil
	})
	eg.Go(func() error {
		out, err := g.ask(egCtx, fmt.Sprintf(dietPrompt, summary))
		if err != nil {
			return fmt.Errorf("diet plan: %w", err)
		}
		diet = out
		return nil
	})
	if err := eg.Wait(); err != nil {
		return "", "", err
	}
	return workout, diet, nil
}

func (g *ModelGenerator) ask(ctx context.Context, prompt string) (string, error) {
	out, err := g.engine.Chat(ctx, g.model, []engine.Message{
		{Role: engine.RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
