package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kalambet/fitai/internal/intent"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

const defaultHistoryCount = 10

// ErrUnknownCommand is returned for input that looks like a command but
// matches none.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one chat command.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string
	run     func(s *Session, ctx context.Context, args []string) error
}

var commands []Command

func init() {
	commands = []Command{
		{Name: "/help", Help: "Show this help message", run: (*Session).cmdHelp},
		{Name: "/chat", Help: "Start or resume chatting with the AI assistant", run: (*Session).cmdChat},
		{Name: "/workout", Help: "View your current workout plan", run: planCommand(profile.WorkoutPlan)},
		{Name: "/diet", Help: "View your current diet plan", run: planCommand(profile.DietPlan)},
		{Name: "/plans", Help: "View both workout and diet plans", run: (*Session).cmdPlans},
		{Name: "/profile", Help: "View your profile information", run: (*Session).cmdProfile},
		{Name: "/update", Help: "Update your profile information", run: (*Session).cmdUpdate},
		{Name: "/history", Aliases: []string{"/load_from_memory"}, Usage: "[n]", Help: "Show your recent conversation history", run: (*Session).cmdHistory},
		{Name: "--exit", Aliases: []string{"/exit"}, Help: "End the session", run: (*Session).cmdExit},
	}
}

// Commands lists the chat commands in help order.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

func lookup(name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

func (s *Session) runCommand(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	cmd, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w %q. Type /help to see available commands", ErrUnknownCommand, fields[0])
	}
	return cmd.run(s, ctx, fields[1:])
}

func (s *Session) cmdHelp(context.Context, []string) error {
	s.io.ShowCommands(Commands())
	return nil
}

func (s *Session) cmdChat(context.Context, []string) error {
	if !s.chat {
		s.chat = true
		s.io.Info("Chat mode. Ask anything about your training or nutrition, or tell me what changed.")
	} else {
		s.io.Info("Resuming chat.")
	}
	return nil
}

func planCommand(kind profile.PlanKind) func(*Session, context.Context, []string) error {
	return func(s *Session, _ context.Context, _ []string) error {
		s.showPlan(kind)
		return nil
	}
}

func (s *Session) cmdPlans(context.Context, []string) error {
	s.showPlans()
	return nil
}

func (s *Session) showPlans() {
	s.showPlan(profile.WorkoutPlan)
	s.showPlan(profile.DietPlan)
}

func (s *Session) showPlan(kind profile.PlanKind) {
	title := "Your Workout Plan"
	if kind == profile.DietPlan {
		title = "Your Diet Plan"
	}
	pl := s.profile.Plan(kind)
	if pl == nil || strings.TrimSpace(pl.Text) == "" {
		s.io.Warn(fmt.Sprintf("No %s plan yet. Update your profile or import one with `fitai plans import`.", kind))
		return
	}
	s.io.ShowMarkdown(title, pl.Text)
}

func (s *Session) cmdProfile(context.Context, []string) error {
	s.io.ShowProfile(s.profile.Clone())
	return nil
}

func (s *Session) cmdExit(context.Context, []string) error {
	s.state = Ended
	return nil
}

func (s *Session) cmdHistory(_ context.Context, args []string) error {
	n := defaultHistoryCount
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid message count %q", args[0])
		}
		n = v
	} else {
		answer, err := s.io.ReadLine(fmt.Sprintf("How many recent messages would you like to see? (default: %d)", defaultHistoryCount))
		if err != nil {
			return err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			v, err := strconv.Atoi(answer)
			if err != nil || v <= 0 {
				s.io.Warn(fmt.Sprintf("Invalid number. Showing the last %d messages.", defaultHistoryCount))
			} else {
				n = v
			}
		}
	}

	turns := s.profile.RecentTurns(n)
	if len(turns) == 0 {
		s.io.Info("No previous conversations found.")
		return nil
	}
	s.io.ShowHistory(turns)
	return nil
}

// cmdUpdate walks through the profile field by field. Enter keeps the
// current value. Collected values go through the same reconciliation as
// free-text updates.
func (s *Session) cmdUpdate(ctx context.Context, _ []string) error {
	s.io.Info("Press Enter to keep the current value.")
	updates := intent.Updates{}

	for _, f := range []profile.Field{profile.FieldWeight, profile.FieldHeight, profile.FieldAge} {
		v, err := s.askNumber(f)
		if err != nil {
			return err
		}
		if v != "" {
			updates[f] = intent.Candidate{Value: v}
		}
	}

	choices := []struct {
		field   profile.Field
		options []string
	}{
		{profile.FieldActivity, names(profile.ActivityLevels)},
		{profile.FieldGoal, names(profile.FitnessGoals)},
		{profile.FieldDiet, names(profile.DietaryPreferences)},
	}
	for _, c := range choices {
		v, err := s.askChoice(c.field, c.options)
		if err != nil {
			return err
		}
		if v != "" {
			updates[c.field] = intent.Candidate{Value: v}
		}
	}

	res, err := s.cfg.Reconciler.Reconcile(ctx, s.profile, updates)
	if err != nil {
		return err
	}
	if !res.Changed() {
		s.io.Info("No changes made to your profile.")
		return nil
	}
	s.reportChanges(res)
	s.rebuild()
	_, _, err = s.maybeRegenerate(ctx)
	return err
}

func (s *Session) askNumber(f profile.Field) (string, error) {
	prompt := fmt.Sprintf("%s (current: %s)", f.Label(), profile.FormatValue(*s.profile, f))
	for {
		answer, err := s.io.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return "", nil
		}
		if _, err := reconcile.Validate(f, answer); err != nil {
			s.io.Error(fmt.Sprintf("Invalid %s: %v. Please try again.", strings.ToLower(f.Label()), err))
			continue
		}
		return answer, nil
	}
}

func (s *Session) askChoice(f profile.Field, options []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (current: %s)", f.Label(), profile.FormatValue(*s.profile, f))
	for i, o := range options {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, o)
	}
	b.WriteString("\nEnter number")

	answer, err := s.io.ReadLine(b.String())
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", nil
	}
	i, err := strconv.Atoi(answer)
	if err != nil || i < 1 || i > len(options) {
		s.io.Error(fmt.Sprintf("Invalid choice. Keeping current %s.", strings.ToLower(f.Label())))
		return "", nil
	}
	return options[i-1], nil
}

func names[T ~string](domain []T) []string {
	out := make([]string, len(domain))
	for i, v := range domain {
		out[i] = string(v)
	}
	return out
}
