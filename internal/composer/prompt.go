package composer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/profile"
)

const (
	defaultMaxPlanTokens = 3000
	defaultHistoryWindow = 10
)

const instructions = `INSTRUCTIONS:
1. Keep responses conversational, friendly, and encouraging.
2. When the user asks about their workout or diet plan, answer from the current plan above.
3. Profile changes the user states are applied automatically; acknowledge them and adjust your advice.
4. When a user updates their profile, adjust workout and diet recommendations accordingly.
5. If you notice missing information needed to provide good advice, ask clarifying questions.
6. You can suggest modifications to plans based on new information from the user.
7. Always be supportive and focus on healthy, sustainable fitness advice.`

// Composer assembles the system context and message list sent to the
// conversational model.
type Composer struct {
	// MaxPlanTokens caps each plan injected into the system context.
	MaxPlanTokens int
	// HistoryWindow is the number of recent turns replayed to the model.
	HistoryWindow int
}

// New creates a Composer. Non-positive arguments select the defaults
// (3000 tokens per plan, 10 turns).
func New(maxPlanTokens, historyWindow int) *Composer {
	if maxPlanTokens <= 0 {
		maxPlanTokens = defaultMaxPlanTokens
	}
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	return &Composer{MaxPlanTokens: maxPlanTokens, HistoryWindow: historyWindow}
}

// SystemContext renders the assistant persona, the profile with its
// derived values, and the current plans. It must be rebuilt whenever the
// profile or plans change.
func (c *Composer) SystemContext(p profile.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are FitAI, an intelligent fitness assistant. You are helping a user named %s.\n\n", p.Name)
	sb.WriteString("USER PROFILE:\n")
	sb.WriteString(profile.Summary(p))

	if p.Workout != nil {
		fmt.Fprintf(&sb, "\n\nCURRENT WORKOUT PLAN:\n%s", c.clip(p.Workout.Text))
	}
	if p.Diet != nil {
		fmt.Fprintf(&sb, "\n\nCURRENT DIET PLAN:\n%s", c.clip(p.Diet.Text))
	}

	sb.WriteString("\n\n")
	sb.WriteString(instructions)
	return sb.String()
}

// Messages builds the chat request: system context, the last HistoryWindow
// turns, then the new user message.
func (c *Composer) Messages(system string, history []profile.Turn, message string) []engine.Message {
	if len(history) > c.HistoryWindow {
		history = history[len(history)-c.HistoryWindow:]
	}
	msgs := make([]engine.Message, 0, 2+2*len(history))
	msgs = append(msgs, engine.Message{Role: engine.RoleSystem, Content: system})
	for _, t := range history {
		msgs = append(msgs,
			engine.Message{Role: engine.RoleUser, Content: t.User},
			engine.Message{Role: engine.RoleAssistant, Content: t.Assistant},
		)
	}
	return append(msgs, engine.Message{Role: engine.RoleUser, Content: message})
}

// clip truncates text to the plan token budget on a line boundary when
// possible.
func (c *Composer) clip(text string) string {
	if EstimateTokens(text) <= c.MaxPlanTokens {
		return text
	}
	end := c.MaxPlanTokens * 4
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[... plan truncated ...]"
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
