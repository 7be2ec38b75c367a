// Package session runs the conversational loop: commands, free-text
// messages, profile reconciliation and plan regeneration for one user.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kalambet/fitai/internal/composer"
	"github.com/kalambet/fitai/internal/intent"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

// ErrPersist is returned when a processed turn could not be saved.
var ErrPersist = profile.ErrPersistence

var errNoInput = errors.New("no interactive input")

// State is the session's position in its input loop.
type State int

const (
	Idle State = iota
	AwaitingInput
	CommandHandled
	MessageProcessed
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting_input"
	case CommandHandled:
		return "command_handled"
	case MessageProcessed:
		return "message_processed"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config wires the session's collaborators.
type Config struct {
	Store      profile.Gateway
	Extractor  intent.Extractor
	Reconciler *reconcile.Reconciler
	Plans      *plan.Service
	Responder  Responder
	Composer   *composer.Composer
	Policy     RegenPolicy
	Clock      profile.Clock
}

// Outcome describes what processing one message did.
type Outcome struct {
	Reconciled  reconcile.Result
	Regenerated bool
	// RegenErr is set when regeneration was attempted and failed. The
	// previous plans are still in place.
	RegenErr error
	Reply    string
}

// Session is a single user's conversation. It is not safe for concurrent
// use; callers serving several requests must serialize per profile.
type Session struct {
	cfg     Config
	io      IO
	profile *profile.Profile
	system  string
	state   State
	chat    bool
}

// New creates a session over p. Missing Clock and Policy fall back to the
// wall clock and RegenAsk.
func New(cfg Config, ui IO, p profile.Profile) *Session {
	if cfg.Clock == nil {
		cfg.Clock = profile.RealClock()
	}
	if cfg.Policy == "" {
		cfg.Policy = RegenAsk
	}
	if cfg.Composer == nil {
		cfg.Composer = composer.New(0, 0)
	}
	s := &Session{cfg: cfg, io: ui, profile: &p}
	s.rebuild()
	return s
}

// Profile returns a copy of the session's current profile.
func (s *Session) Profile() profile.Profile { return s.profile.Clone() }

// State returns the current loop state.
func (s *Session) State() State { return s.state }

// SystemContext returns the context currently sent with every model call.
func (s *Session) SystemContext() string { return s.system }

func (s *Session) rebuild() {
	s.system = s.cfg.Composer.SystemContext(*s.profile)
}

// Run greets the user and processes input lines until an exit command, end
// of input or context cancellation. Errors from individual lines are shown
// to the user and do not stop the loop.
func (s *Session) Run(ctx context.Context) error {
	s.greet()
	for s.state != Ended {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.state = AwaitingInput
		line, err := s.io.ReadLine("You")
		if errors.Is(err, io.EOF) {
			s.state = Ended
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if err := s.Handle(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.io.Error(err.Error())
		}
	}
	s.io.Success("Thank you for using FitAI! Goodbye!")
	return nil
}

func (s *Session) greet() {
	if len(s.profile.History) == 0 {
		s.io.Success(fmt.Sprintf("Welcome to FitAI, %s! Here are your personalized plans.", s.profile.Name))
		s.showPlans()
	} else {
		s.io.Success(fmt.Sprintf("Welcome back, %s!", s.profile.Name))
		s.io.Info("Type /plans to review your plans or /history to see recent messages.")
	}
	s.io.Info("Type /help for available commands or --exit to end the session.")
}

// Handle processes one input line: a command when it starts with "/" or
// "--", otherwise a chat message. Blank lines are ignored.
func (s *Session) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		s.state = AwaitingInput
		return nil
	}
	if strings.HasPrefix(line, "/") || strings.HasPrefix(line, "--") {
		s.state = CommandHandled
		return s.runCommand(ctx, line)
	}
	s.state = MessageProcessed
	_, err := s.ProcessMessage(ctx, line)
	return err
}

// ProcessMessage handles a free-text message. Profile updates mentioned in
// it are reconciled first; if anything changed and the regeneration policy
// approves, both plans are regenerated. The model then replies against the
// rebuilt context, and the turn is appended and saved.
//
// A model failure is returned without appending a turn. A save failure
// wraps ErrPersist.
func (s *Session) ProcessMessage(ctx context.Context, message string) (Outcome, error) {
	var out Outcome

	res, err := s.cfg.Reconciler.Reconcile(ctx, s.profile, s.cfg.Extractor.Extract(ctx, message))
	out.Reconciled = res
	if err != nil {
		return out, err
	}

	if res.Changed() {
		s.reportChanges(res)
		s.rebuild()
		out.Regenerated, out.RegenErr, err = s.maybeRegenerate(ctx)
		if err != nil {
			return out, err
		}
	}

	reply, err := s.cfg.Responder.Respond(ctx, s.system, s.profile.History, message)
	if err != nil {
		return out, fmt.Errorf("getting reply: %w", err)
	}
	out.Reply = reply
	s.io.ShowMarkdown("FitAI", reply)

	s.profile.AppendTurn(profile.Turn{At: s.cfg.Clock.Now(), User: message, Assistant: reply})
	if err := s.cfg.Store.Save(ctx, *s.profile); err != nil {
		return out, fmt.Errorf("%w: saving conversation: %w", ErrPersist, err)
	}
	return out, nil
}

func (s *Session) reportChanges(res reconcile.Result) {
	for _, c := range res.Applied {
		s.io.Success(fmt.Sprintf("Updated %s: %s → %s", strings.ToLower(c.Field.Label()), display(c.From), display(c.To)))
	}
}

func display(v reconcile.Value) string {
	switch v.Field {
	case profile.FieldWeight:
		return v.String() + " kg"
	case profile.FieldHeight:
		return v.String() + " cm"
	}
	if v.String() == "" {
		return "(unset)"
	}
	return v.String()
}

// maybeRegenerate applies the regeneration policy after a profile change.
// The returned error is non-nil only for failures that must stop the
// message; a failed generation is reported through regenErr.
func (s *Session) maybeRegenerate(ctx context.Context) (regenerated bool, regenErr error, err error) {
	ok, err := s.approveRegeneration()
	if err != nil || !ok {
		return false, nil, err
	}
	if s.cfg.Plans == nil {
		return false, nil, nil
	}

	s.io.Info("Updating your workout and diet plans...")
	if err := s.cfg.Plans.Regenerate(ctx, s.profile); err != nil {
		if errors.Is(err, plan.ErrRegeneration) {
			s.io.Warn("Could not update your plans right now. Your previous plans are kept.")
			return false, err, nil
		}
		s.io.Warn("Your new plans could not be saved. Your previous plans are kept.")
		s.rebuild()
		return false, nil, err
	}
	s.rebuild()
	s.io.Success("Your plans have been updated.")
	return true, nil, nil
}

func (s *Session) approveRegeneration() (bool, error) {
	switch s.cfg.Policy {
	case RegenAlways:
		return true, nil
	case RegenNever:
		return false, nil
	}
	ok, err := s.io.Confirm("Would you like to update your workout and diet plans based on your new information?")
	if errors.Is(err, errNoInput) {
		slog.Debug("no interactive input for regeneration prompt, keeping plans")
		return false, nil
	}
	return ok, err
}
