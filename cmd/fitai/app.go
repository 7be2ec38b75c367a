package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/fitai/internal/api"
	"github.com/kalambet/fitai/internal/auth"
	"github.com/kalambet/fitai/internal/composer"
	"github.com/kalambet/fitai/internal/config"
	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/intent"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/session"
	"github.com/kalambet/fitai/internal/storage"
)

var errNoUser = errors.New("--user is required")

// app holds the configuration and storage every profile command needs.
// Model access is opened separately so commands that never call a model
// work without an API key.
type app struct {
	cfg   config.Config
	store *storage.Store
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return &app{cfg: cfg, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// openEngine validates the model settings and opens the configured provider.
func (a *app) openEngine(ctx context.Context) (engine.Engine, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	eng, err := engine.Open(ctx, a.cfg.EngineOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s engine: %w", a.cfg.Model.Provider, err)
	}
	return eng, nil
}

func (a *app) composer() *composer.Composer {
	return composer.New(0, a.cfg.Chat.HistoryWindow)
}

// extractor returns the configured update extractor. summary may be nil.
func (a *app) extractor(eng engine.Engine, summary func() string) intent.Extractor {
	if a.cfg.Extractor.Mode == "model" && eng != nil {
		return intent.NewModelExtractor(eng, a.cfg.ChatModel(), summary)
	}
	return intent.NewPatternExtractor()
}

// coach wires the profile operations. A nil eng gives a coach that can read
// and update profiles but fails any call that needs a model.
func (a *app) coach(eng engine.Engine) *api.Coach {
	deps := api.CoachDeps{
		Store:     a.store,
		Extractor: a.extractor(eng, nil),
		Composer:  a.composer(),
	}
	if eng != nil {
		model := a.cfg.ChatModel()
		deps.Generator = plan.NewModelGenerator(eng, model)
		deps.Responder = session.NewModelResponder(eng, model, deps.Composer)
	} else {
		deps.Generator = noModel{}
		deps.Responder = noModel{}
	}
	return api.NewCoach(deps)
}

// resolveUser maps the --user handle to a profile id.
func (a *app) resolveUser(ctx context.Context) (string, error) {
	if strings.TrimSpace(userHandle) == "" {
		return "", errNoUser
	}
	id, err := auth.NewService(a.store).ProfileID(ctx, userHandle)
	if errors.Is(err, auth.ErrUnknownHandle) {
		return "", fmt.Errorf("no user %q: run `fitai chat` to register", userHandle)
	}
	return id, err
}

func (a *app) loadUser(ctx context.Context) (profile.Profile, error) {
	id, err := a.resolveUser(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	return a.store.Load(ctx, id)
}

// noModel stands in for model-backed collaborators in commands that were
// not asked to call a model.
type noModel struct{}

var errNoModel = fmt.Errorf("%w: no model configured for this command", engine.ErrModel)

func (noModel) Generate(context.Context, profile.Profile) (string, string, error) {
	return "", "", errNoModel
}

func (noModel) Respond(context.Context, string, []profile.Turn, string) (string, error) {
	return "", errNoModel
}
