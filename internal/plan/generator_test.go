package plan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/profile"
)

// scriptedEngine answers workout and diet prompts separately.
type scriptedEngine struct {
	mu      sync.Mutex
	workout string
	diet    string
	dietErr error
	block   bool
	prompts []string
}

func (e *scriptedEngine) Chat(ctx context.Context, _ string, msgs []engine.Message, _ *engine.Schema) (string, error) {
	prompt := msgs[len(msgs)-1].Content
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.mu.Unlock()

	if strings.Contains(prompt, "DIET PLAN") {
		if e.dietErr != nil {
			return "", e.dietErr
		}
		return e.diet, nil
	}
	if e.block {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	return e.workout, nil
}

func (e *scriptedEngine) IsRunning(context.Context) bool { return true }

func sampleProfile() profile.Profile {
	return profile.Profile{
		ID:                "p1",
		Name:              "Sam",
		Age:               30,
		HeightCM:          175,
		WeightKG:          80,
		ActivityLevel:     profile.Moderate,
		FitnessGoal:       profile.MuscleGain,
		DietaryPreference: profile.Vegan,
	}
}

func TestModelGenerator_BothPlans(t *testing.T) {
	eng := &scriptedEngine{workout: "  squats  ", diet: "tofu"}
	workout, diet, err := NewModelGenerator(eng, "m").Generate(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, "squats", workout)
	assert.Equal(t, "tofu", diet)

	require.Len(t, eng.prompts, 2)
	for _, p := range eng.prompts {
		assert.Contains(t, p, "- BMI: 26.12 (Overweight)")
		assert.Contains(t, p, "- Dietary Preference: Vegan")
	}
}

func TestModelGenerator_FailureCancelsSibling(t *testing.T) {
	eng := &scriptedEngine{workout: "squats", dietErr: engine.ErrModel, block: true}

	start := time.Now()
	_, _, err := NewModelGenerator(eng, "m").Generate(context.Background(), sampleProfile())
	assert.ErrorIs(t, err, engine.ErrModel)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type mockGenerator struct {
	workout, diet string
	err           error
	calls         int
}

func (g *mockGenerator) Generate(context.Context, profile.Profile) (string, string, error) {
	g.calls++
	return g.workout, g.diet, g.err
}

type mockGateway struct {
	saved   []profile.Profile
	saveErr error
}

func (m *mockGateway) Load(context.Context, string) (profile.Profile, error) {
	return profile.Profile{}, profile.ErrNotFound
}

func (m *mockGateway) Save(_ context.Context, p profile.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, p.Clone())
	return nil
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestRegenerate_ReplacesBothPlans(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := sampleProfile()
	p.Workout = &profile.Plan{Text: "old workout", UpdatedAt: old}
	p.Diet = &profile.Plan{Text: "old diet", UpdatedAt: old}
	gw := &mockGateway{}

	svc := NewService(&mockGenerator{workout: "new workout", diet: "new diet"}, gw).WithClock(fixedClock(now))
	require.NoError(t, svc.Regenerate(context.Background(), &p))

	assert.Equal(t, profile.Plan{Text: "new workout", UpdatedAt: now}, *p.Workout)
	assert.Equal(t, profile.Plan{Text: "new diet", UpdatedAt: now}, *p.Diet)
	require.Len(t, gw.saved, 1)
	assert.Equal(t, "new diet", gw.saved[0].Diet.Text)
}

func TestRegenerate_FailureKeepsPlans(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := sampleProfile()
	p.Workout = &profile.Plan{Text: "old workout", UpdatedAt: old}
	p.Diet = &profile.Plan{Text: "old diet", UpdatedAt: old}
	gw := &mockGateway{}

	err := NewService(&mockGenerator{err: errors.New("quota exceeded")}, gw).Regenerate(context.Background(), &p)
	assert.ErrorIs(t, err, ErrRegeneration)
	assert.Equal(t, profile.Plan{Text: "old workout", UpdatedAt: old}, *p.Workout)
	assert.Equal(t, profile.Plan{Text: "old diet", UpdatedAt: old}, *p.Diet)
	assert.Empty(t, gw.saved)
}

func TestRegenerate_EmptyTextIsFailure(t *testing.T) {
	p := sampleProfile()
	err := NewService(&mockGenerator{workout: "squats", diet: "   "}, &mockGateway{}).Regenerate(context.Background(), &p)
	assert.ErrorIs(t, err, ErrRegeneration)
	assert.Nil(t, p.Workout)
	assert.Nil(t, p.Diet)
}

func TestRegenerate_PersistenceFailure(t *testing.T) {
	p := sampleProfile()
	gw := &mockGateway{saveErr: errors.New("disk full")}
	err := NewService(&mockGenerator{workout: "w", diet: "d"}, gw).Regenerate(context.Background(), &p)
	assert.ErrorIs(t, err, profile.ErrPersistence)
	assert.NotErrorIs(t, err, ErrRegeneration)
	assert.Nil(t, p.Workout, "unsaved plans must not reach the caller's profile")
	assert.Nil(t, p.Diet)

	err = NewService(&mockGenerator{}, gw).Import(context.Background(), &p, profile.DietPlan, "oats")
	assert.ErrorIs(t, err, profile.ErrPersistence)
	assert.Nil(t, p.Diet)
}

func TestImport(t *testing.T) {
	p := sampleProfile()
	gw := &mockGateway{}
	svc := NewService(&mockGenerator{}, gw)

	require.NoError(t, svc.Import(context.Background(), &p, profile.DietPlan, "\n# Meal plan\n"))
	assert.Equal(t, "# Meal plan", p.Diet.Text)
	assert.Nil(t, p.Workout)
	assert.Len(t, gw.saved, 1)

	assert.Error(t, svc.Import(context.Background(), &p, profile.WorkoutPlan, "  "))
	assert.Error(t, svc.Import(context.Background(), &p, profile.PlanKind("sleep"), "8h"))
}
