package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kalambet/fitai/internal/auth"
	"github.com/kalambet/fitai/internal/console"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
	"github.com/kalambet/fitai/internal/storage"
)

var ctx = context.Background()

// setupDataDir points config at temp directories and seeds one registered
// user "sam" with a profile, plans and two conversation turns.
func setupDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("FITAI_STORAGE_DATA_DIR", dir)
	t.Setenv("FITAI_LOG_LEVEL", "error")

	store, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	p := profile.Profile{
		ID:                "p-sam",
		Name:              "Sam",
		Age:               34,
		HeightCM:          180,
		WeightKG:          85,
		ActivityLevel:     profile.Moderate,
		FitnessGoal:       profile.WeightLoss,
		DietaryPreference: profile.Vegetarian,
		Workout:           &profile.Plan{Text: "Run 5k three times a week.", UpdatedAt: at},
		Diet:              &profile.Plan{Text: "Lentils and greens.", UpdatedAt: at},
		History: []profile.Turn{
			{At: at, User: "how many rest days?", Assistant: "Two per week."},
			{At: at.Add(time.Minute), User: "thanks", Assistant: "Anytime."},
		},
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}
	svc := auth.NewService(store).WithCost(bcrypt.MinCost)
	if err := svc.Register(ctx, "sam", "hunter2", p.ID); err != nil {
		t.Fatalf("registering: %v", err)
	}
	return dir
}

func loadSam(t *testing.T, dir string) profile.Profile {
	t.Helper()
	store, err := storage.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	p, err := store.Load(ctx, "p-sam")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		userHandle = ""
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldColor := statusOut, noColor
	statusOut, noColor = &buf, true
	defer func() { statusOut, noColor = oldOut, oldColor }()

	printWarning("weight %d kg", 80)
	printStatus("Provider", "%s", "gemini")
	want := "⚠ weight 80 kg\n  Provider: gemini\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConfigUnset(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("writes to the user's defaults domain on macOS")
	}
	setupDataDir(t)
	t.Setenv("FITAI_CHAT_HISTORY_WINDOW", "")
	var status bytes.Buffer
	oldOut := statusOut
	statusOut = &status
	defer func() { statusOut = oldOut }()

	if _, err := execute(t, "config", "set", "chat.history_window", "15"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "chat.history_window = 15") {
		t.Fatalf("set value not shown:\n%s", out)
	}

	if _, err := execute(t, "config", "unset", "chat.history_window"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
	if !strings.Contains(status.String(), "✓ Unset chat.history_window") {
		t.Errorf("status = %q", status.String())
	}
	out, err = execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "chat.history_window = 10") {
		t.Errorf("default not restored:\n%s", out)
	}

	if _, err := execute(t, "config", "unset", "nope.key"); err == nil {
		t.Error("unset unknown key succeeded")
	}
}

func TestProfilesCommand(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "profiles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "p-sam") || !strings.Contains(out, "Sam") {
		t.Errorf("output = %q", out)
	}
}

func TestProfileShow_JSON(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "profile", "show", "--user", "Sam", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var snap profile.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if snap.ID != "p-sam" || snap.BMI != 26.23 || snap.BMICategory != profile.Overweight {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.History) != 0 {
		t.Errorf("show should not include history, got %d turns", len(snap.History))
	}
}

func TestProfileShow_Panel(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "profile", "show", "--user", "sam", "--json=false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Your Profile", "Sam", "26.23", "Overweight"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProfileShow_UserErrors(t *testing.T) {
	setupDataDir(t)

	_, err := execute(t, "profile", "show")
	if !errors.Is(err, errNoUser) {
		t.Errorf("no --user: err = %v, want errNoUser", err)
	}

	_, err = execute(t, "profile", "show", "--user", "alex")
	if err == nil || !strings.Contains(err.Error(), `no user "alex"`) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestProfileSet(t *testing.T) {
	dir := setupDataDir(t)

	if _, err := execute(t, "profile", "set", "weight_kg", "80", "--user", "sam"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := execute(t, "profile", "set", "fitness_goal", "muscle gain", "--user", "sam"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := loadSam(t, dir)
	if p.WeightKG != 80 || p.FitnessGoal != profile.MuscleGain {
		t.Errorf("profile = %+v", p)
	}
	if p.Workout.Text != "Run 5k three times a week." {
		t.Errorf("plans changed without --regenerate: %q", p.Workout.Text)
	}
}

func TestProfileSet_Errors(t *testing.T) {
	dir := setupDataDir(t)

	_, err := execute(t, "profile", "set", "age", "500", "--user", "sam")
	if !errors.Is(err, reconcile.ErrRejected) {
		t.Errorf("out of range: err = %v, want ErrRejected", err)
	}

	_, err = execute(t, "profile", "set", "shoe_size", "44", "--user", "sam")
	if !errors.Is(err, reconcile.ErrUnknownField) {
		t.Errorf("unknown field: err = %v, want ErrUnknownField", err)
	}

	_, err = execute(t, "profile", "set", "age", "--user", "sam")
	if err == nil {
		t.Error("expected error for missing value")
	}

	if p := loadSam(t, dir); p.Age != 34 {
		t.Errorf("age = %d, want unchanged 34", p.Age)
	}
}

func TestPlansImport(t *testing.T) {
	dir := setupDataDir(t)
	file := filepath.Join(t.TempDir(), "meals.md")
	if err := os.WriteFile(file, []byte("# Meals\n\nOats for breakfast.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "plans", "import", "--user", "sam", "--kind", "diet", "--file", file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := loadSam(t, dir)
	if p.Diet.Text != "# Meals\n\nOats for breakfast." {
		t.Errorf("diet = %q", p.Diet.Text)
	}
	if p.Workout.Text != "Run 5k three times a week." {
		t.Errorf("workout changed: %q", p.Workout.Text)
	}
}

func TestPlansImport_Errors(t *testing.T) {
	setupDataDir(t)

	if _, err := execute(t, "plans", "import", "--user", "sam", "--kind", "diet", "--file", ""); err == nil {
		t.Error("expected error for missing --file")
	}
	if _, err := execute(t, "plans", "import", "--user", "sam", "--kind", "", "--file", "x.md"); err == nil {
		t.Error("expected error for missing --kind")
	}
	if _, err := execute(t, "plans", "import", "--user", "sam", "--kind", "snacks", "--file", "x.md"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPlansShow(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "plans", "show", "--user", "sam", "--kind", "workout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Your workout plan") || !strings.Contains(out, "Run 5k") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "Lentils") {
		t.Errorf("diet plan shown for --kind workout")
	}
}

func TestHistoryCommand(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "history", "--user", "sam", "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "thanks") || strings.Contains(out, "rest days") {
		t.Errorf("output = %q, want only the latest turn", out)
	}
}

func TestDataExport(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "data", "export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type record struct {
		Type string           `json:"type"`
		Data profile.Snapshot `json:"data"`
	}
	sc := bufio.NewScanner(strings.NewReader(out))
	var records []record
	for sc.Scan() {
		var r record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		records = append(records, r)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Type != "profile" || len(records[0].Data.History) != 2 {
		t.Errorf("record = %+v", records[0])
	}
	if records[0].Data.History[0].User != "how many rest days?" {
		t.Errorf("history out of order: %+v", records[0].Data.History)
	}
}

// --- login ---

func newLoginEnv(t *testing.T, input string) (*console.Console, *bytes.Buffer, *auth.Service, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	var out bytes.Buffer
	ui := console.New(strings.NewReader(input), &out, true)
	return ui, &out, auth.NewService(store).WithCost(bcrypt.MinCost), store
}

func TestLogin_RegistersAndOnboards(t *testing.T) {
	// Handle, password and account confirmation, then the questionnaire:
	// name, age, height, a bad weight, weight, blood group and the
	// Active / Endurance / Vegetarian menu choices.
	input := strings.Join([]string{
		"Riley", "s3cret", "y",
		"Riley", "29", "172", "abc", "68",
		"o+",
		"3", "3", "2",
	}, "\n") + "\n"
	ui, out, svc, store := newLoginEnv(t, input)

	p, err := login(ctx, ui, svc, store)
	if err != nil {
		t.Fatalf("login: %v\n%s", err, out)
	}
	if p.Name != "Riley" || p.Age != 29 || p.HeightCM != 172 || p.WeightKG != 68 {
		t.Errorf("profile = %+v", p)
	}
	if p.BloodGroup != "O+" || p.ActivityLevel != profile.Active || p.FitnessGoal != profile.Endurance || p.DietaryPreference != profile.Vegetarian {
		t.Errorf("profile = %+v", p)
	}
	if !strings.Contains(out.String(), "Please enter a valid number.") {
		t.Errorf("bad weight not reported:\n%s", out)
	}

	id, err := svc.Authenticate(ctx, "riley", "s3cret")
	if err != nil || id != p.ID {
		t.Errorf("Authenticate = %q, %v; want %q", id, err, p.ID)
	}
	if _, err := store.Load(ctx, p.ID); err != nil {
		t.Errorf("profile not stored: %v", err)
	}
}

func TestLogin_ExistingUser(t *testing.T) {
	ui, out, svc, store := newLoginEnv(t, "\nsam\nwrong\nsam\nhunter2\n")
	seed := profile.Profile{ID: "p1", Name: "Sam", Age: 30, HeightCM: 170, WeightKG: 70,
		ActivityLevel: profile.Sedentary, FitnessGoal: profile.WeightLoss, DietaryPreference: profile.Vegan}
	if err := store.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}
	if err := svc.Register(ctx, "sam", "hunter2", "p1"); err != nil {
		t.Fatal(err)
	}

	p, err := login(ctx, ui, svc, store)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("profile id = %q, want p1", p.ID)
	}
	text := out.String()
	if !strings.Contains(text, "Username cannot be empty.") {
		t.Errorf("empty handle not reported:\n%s", text)
	}
	if !strings.Contains(text, "Invalid username or password.") {
		t.Errorf("wrong password not reported:\n%s", text)
	}
}

func TestLogin_DeclineAndEOF(t *testing.T) {
	ui, _, svc, store := newLoginEnv(t, "newbie\npw\nn\n")
	if _, err := login(ctx, ui, svc, store); err == nil {
		t.Fatal("expected error at end of input")
	}
	if _, err := svc.ProfileID(ctx, "newbie"); !errors.Is(err, auth.ErrUnknownHandle) {
		t.Errorf("declined handle was registered: %v", err)
	}
}

func TestRegister_TakenHandleStoresNothing(t *testing.T) {
	input := strings.Join([]string{"Riley", "29", "172", "68", "", "3", "3", "2"}, "\n") + "\n"
	ui, _, svc, store := newLoginEnv(t, input)
	if err := svc.Register(ctx, "riley", "first", "someone-else"); err != nil {
		t.Fatal(err)
	}

	if _, err := register(ctx, ui, svc, "Riley", "s3cret"); !errors.Is(err, auth.ErrHandleTaken) {
		t.Fatalf("err = %v, want ErrHandleTaken", err)
	}
	refs, err := store.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("orphan profiles stored: %+v", refs)
	}
}

type stubGenerator struct{ err error }

func (g stubGenerator) Generate(_ context.Context, p profile.Profile) (string, string, error) {
	if g.err != nil {
		return "", "", g.err
	}
	return "workout for " + p.Name, "diet for " + p.Name, nil
}

func TestEnsurePlans(t *testing.T) {
	ui, out, _, store := newLoginEnv(t, "")
	p := profile.Profile{ID: "p1", Name: "Sam", Age: 30, HeightCM: 170, WeightKG: 70,
		ActivityLevel: profile.Sedentary, FitnessGoal: profile.WeightLoss, DietaryPreference: profile.Vegan}

	failing := plan.NewService(stubGenerator{err: errors.New("quota")}, store)
	if err := ensurePlans(ctx, ui, failing, &p); err != nil {
		t.Fatalf("generation failure should not end chat: %v", err)
	}
	if p.Workout != nil || !strings.Contains(out.String(), "Could not generate your plans") {
		t.Errorf("failure not reported: %+v\n%s", p.Workout, out)
	}

	if err := ensurePlans(ctx, ui, plan.NewService(stubGenerator{}, store), &p); err != nil {
		t.Fatal(err)
	}
	if p.Workout == nil || p.Workout.Text != "workout for Sam" {
		t.Errorf("workout = %+v", p.Workout)
	}

	// Existing plans are left alone.
	if err := ensurePlans(ctx, ui, failing, &p); err != nil {
		t.Fatal(err)
	}
	if p.Diet.Text != "diet for Sam" {
		t.Errorf("diet = %q", p.Diet.Text)
	}
}
