package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/fitai/internal/auth"
	"github.com/kalambet/fitai/internal/console"
	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/onboarding"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
	"github.com/kalambet/fitai/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Log in and chat with your fitness assistant (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	model := a.cfg.ChatModel()
	if oe, ok := eng.(*engine.OllamaEngine); ok {
		if err := oe.EnsureReady(ctx, model, os.Stderr); err != nil {
			return err
		}
	}
	policy, err := session.ParsePolicy(a.cfg.Chat.Regenerate)
	if err != nil {
		return err
	}

	ui := console.New(in, out, noColor)
	ui.ShowMarkdown("FitAI", "Your personal fitness assistant.")

	p, err := login(ctx, ui, auth.NewService(a.store), a.store)
	if err != nil {
		return err
	}

	plans := plan.NewService(plan.NewModelGenerator(eng, model), a.store)
	if err := ensurePlans(ctx, ui, plans, &p); err != nil {
		return err
	}

	comp := a.composer()
	var s *session.Session
	extractor := a.extractor(eng, func() string { return profile.Summary(s.Profile()) })
	s = session.New(session.Config{
		Store:      a.store,
		Extractor:  extractor,
		Reconciler: reconcile.New(a.store),
		Plans:      plans,
		Responder:  session.NewModelResponder(eng, model, comp),
		Composer:   comp,
		Policy:     policy,
	}, ui, p)
	return s.Run(ctx)
}

// loginUI is what login and onboarding need from the terminal.
type loginUI interface {
	onboarding.Prompter
	Password(prompt string) (string, error)
	Confirm(question string) (bool, error)
	Success(msg string)
}

// login authenticates an existing handle, or registers an unknown one and
// collects its profile. It loops until one of the two succeeds or input
// ends.
func login(ctx context.Context, ui loginUI, svc *auth.Service, store profile.Gateway) (profile.Profile, error) {
	for {
		handle, err := ui.ReadLine("Username")
		if err != nil {
			return profile.Profile{}, err
		}
		handle = strings.TrimSpace(handle)
		if handle == "" {
			ui.Error("Username cannot be empty.")
			continue
		}
		password, err := ui.Password("Password")
		if err != nil {
			return profile.Profile{}, err
		}

		id, err := svc.Authenticate(ctx, handle, password)
		switch {
		case err == nil:
			p, err := store.Load(ctx, id)
			if err != nil {
				return profile.Profile{}, fmt.Errorf("loading profile: %w", err)
			}
			ui.Success("Logged in.")
			return p, nil
		case errors.Is(err, auth.ErrUnknownHandle):
			ok, err := ui.Confirm(fmt.Sprintf("No account named %q. Create one?", handle))
			if err != nil {
				return profile.Profile{}, err
			}
			if !ok {
				continue
			}
			return register(ctx, ui, svc, handle, password)
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidInput):
			ui.Error("Invalid username or password. Please try again.")
		default:
			return profile.Profile{}, err
		}
	}
}

func register(ctx context.Context, ui loginUI, svc *auth.Service, handle, password string) (profile.Profile, error) {
	p, err := onboarding.New(ui).Collect()
	if err != nil {
		return profile.Profile{}, err
	}
	if err := svc.CreateAccount(ctx, handle, password, p); err != nil {
		return profile.Profile{}, fmt.Errorf("registering %q: %w", handle, err)
	}
	ui.Success("Account created.")
	return p, nil
}

// ensurePlans generates plans for a profile that has none yet, as right
// after registration. Failure is reported and chat continues without them.
func ensurePlans(ctx context.Context, ui session.IO, plans *plan.Service, p *profile.Profile) error {
	if p.Workout != nil && p.Diet != nil {
		return nil
	}
	ui.Info("Generating your personalized workout and diet plans...")
	err := plans.Regenerate(ctx, p)
	if errors.Is(err, plan.ErrRegeneration) {
		ui.Warn("Could not generate your plans right now. Ask again later or use /update.")
		return nil
	}
	return err
}
