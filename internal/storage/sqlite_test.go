package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kalambet/fitai/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProfile() profile.Profile {
	base := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)
	return profile.Profile{
		ID:                "8d0f6a4e-1c2b-4c1e-9f5e-2f1a3b4c5d6e",
		Name:              "Sam",
		Age:               30,
		HeightCM:          175.5,
		WeightKG:          80.25,
		ActivityLevel:     profile.Moderate,
		FitnessGoal:       profile.MuscleGain,
		DietaryPreference: profile.NonVegetarian,
		BloodGroup:        "O+",
		Workout:           &profile.Plan{Text: "## Monday\nSquats 5x5", UpdatedAt: base},
		Diet:              &profile.Plan{Text: "## Breakfast\nOats", UpdatedAt: base},
		History: []profile.Turn{
			{At: base.Add(time.Minute), User: "hi", Assistant: "hello"},
			{At: base.Add(2 * time.Minute), User: "tips?", Assistant: "sleep more"},
		},
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) == 0 || len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_init.sql")
	if err != nil || v != 1 {
		t.Errorf("parseMigrationVersion = %d, %v", v, err)
	}
	if _, err := parseMigrationVersion("init.sql"); err == nil {
		t.Error("expected error for unnumbered file")
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("err = %v, want profile.ErrNotFound", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := testProfile()

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, want.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got.BMI() != want.BMI() || got.BMICategory() != want.BMICategory() {
		t.Errorf("derived values differ after reload")
	}
}

func TestSave_WithoutPlans(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testProfile()
	p.Workout, p.Diet, p.History = nil, nil, nil

	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, p.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Workout != nil || got.Diet != nil {
		t.Error("expected no plans")
	}
	if got.History != nil {
		t.Errorf("expected nil history, got %d turns", len(got.History))
	}
}

func TestSave_AppendsTurnsOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testProfile()

	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p.AppendTurn(profile.Turn{At: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), User: "I now weigh 79 kg", Assistant: "noted"})
	p.WeightKG = 79
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	// Saving again without new turns must not duplicate anything.
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("third Save: %v", err)
	}

	got, _ := s.Load(ctx, p.ID)
	if len(got.History) != 3 {
		t.Fatalf("history len = %d, want 3", len(got.History))
	}
	if got.History[2].User != "I now weigh 79 kg" {
		t.Errorf("last turn = %q", got.History[2].User)
	}
	if got.WeightKG != 79 {
		t.Errorf("WeightKG = %v, want 79", got.WeightKG)
	}
}

func TestSave_RejectsTruncatedHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testProfile()
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	p.History = p.History[:1]
	p.WeightKG = 70
	if err := s.Save(ctx, p); !errors.Is(err, ErrHistoryConflict) {
		t.Fatalf("err = %v, want ErrHistoryConflict", err)
	}
	got, _ := s.Load(ctx, p.ID)
	if got.WeightKG != 80.25 {
		t.Errorf("failed save must roll back; WeightKG = %v", got.WeightKG)
	}
}

func TestSave_ReplacesPlans(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testProfile()
	s.Save(ctx, p)

	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	p.SetPlan(profile.WorkoutPlan, profile.Plan{Text: "new workout", UpdatedAt: later})
	p.SetPlan(profile.DietPlan, profile.Plan{Text: "new diet", UpdatedAt: later})
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := s.Load(ctx, p.ID)
	if got.Workout.Text != "new workout" || !got.Workout.UpdatedAt.Equal(later) {
		t.Errorf("workout = %+v", got.Workout)
	}
	if got.Diet.Text != "new diet" {
		t.Errorf("diet = %+v", got.Diet)
	}
}

func TestTurns_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testProfile()
	p.AppendTurn(profile.Turn{At: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), User: "third", Assistant: "3"})
	s.Save(ctx, p)

	turns, err := s.Turns(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 2 || turns[0].User != "tips?" || turns[1].User != "third" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestListProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.Save(ctx, testProfile())

	refs, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(refs) != 1 || refs[0].Name != "Sam" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestCredentials(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := Credential{Handle: "sam", PasswordHash: "$2a$10$hash", ProfileID: "p1"}
	if err := s.CreateCredential(ctx, c); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}
	if err := s.CreateCredential(ctx, c); !errors.Is(err, ErrHandleTaken) {
		t.Errorf("duplicate err = %v, want ErrHandleTaken", err)
	}

	got, err := s.GetCredential(ctx, "sam")
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.ProfileID != "p1" || got.PasswordHash != c.PasswordHash {
		t.Errorf("credential = %+v", got)
	}
	if _, err := s.GetCredential(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateAccount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testProfile()
	if err := s.CreateAccount(ctx, p, Credential{Handle: "sam", PasswordHash: "h", ProfileID: p.ID}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := s.Load(ctx, p.ID); err != nil {
		t.Fatalf("Load after CreateAccount: %v", err)
	}

	other := testProfile()
	other.ID = "second-profile"
	err := s.CreateAccount(ctx, other, Credential{Handle: "sam", PasswordHash: "h", ProfileID: other.ID})
	if !errors.Is(err, ErrHandleTaken) {
		t.Fatalf("err = %v, want ErrHandleTaken", err)
	}
	if _, err := s.Load(ctx, other.ID); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("profile left behind after taken handle: err = %v", err)
	}
	refs, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("len(refs) = %d, want 1", len(refs))
	}
}

func TestCreateAccount_MismatchedProfile(t *testing.T) {
	s := openTestStore(t)
	p := testProfile()
	err := s.CreateAccount(context.Background(), p, Credential{Handle: "sam", PasswordHash: "h", ProfileID: "elsewhere"})
	if err == nil {
		t.Fatal("expected error for credential pointing at another profile")
	}
	if _, err := s.GetCredential(context.Background(), "sam"); !errors.Is(err, ErrNotFound) {
		t.Errorf("credential stored despite mismatch: err = %v", err)
	}
}
