package console

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/session"
)

var _ session.IO = (*Console)(nil)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out, true), &out
}

func TestReadLine(t *testing.T) {
	c, out := newTestConsole("first\r\nsecond\nlast")

	for _, want := range []string{"first", "second", "last"} {
		got, err := c.ReadLine("You")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := c.ReadLine("You")
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out.String(), "You: ")
}

func TestPasswordWithoutTerminal(t *testing.T) {
	c, _ := newTestConsole("s3cret\n")
	got, err := c.Password("Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestConfirm(t *testing.T) {
	c, out := newTestConsole("maybe\nY\nno\n")

	ok, err := c.Confirm("Regenerate?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Please answer 'y' or 'n'.")

	ok, err = c.Confirm("Again?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Confirm("EOF?")
	assert.ErrorIs(t, err, io.EOF)
}

func TestStatusLines(t *testing.T) {
	c, out := newTestConsole("")
	c.Info("loading")
	c.Success("saved")
	c.Warn("careful")
	c.Error("broken")

	assert.Equal(t, "→ loading\n✓ saved\n⚠ careful\n✗ broken\n", out.String())
}

func TestShowProfile(t *testing.T) {
	c, out := newTestConsole("")
	c.ShowProfile(profile.Profile{
		Name:              "Sam",
		Age:               34,
		HeightCM:          180,
		WeightKG:          80,
		ActivityLevel:     profile.Active,
		FitnessGoal:       profile.MuscleGain,
		DietaryPreference: profile.Vegan,
		BloodGroup:        "O+",
		Workout:           &profile.Plan{Text: "w", UpdatedAt: time.Now()},
	})

	s := out.String()
	for _, want := range []string{"Your Profile", "Sam", "34 years", "180 cm", "80 kg", "24.69 (Normal)", "Muscle Gain", "Vegan", "O+", "Workout Plan Updated"} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "Diet Plan Updated")
}

func TestShowCommands(t *testing.T) {
	c, out := newTestConsole("")
	c.ShowCommands(session.Commands())

	s := out.String()
	assert.Contains(t, s, "/history [n]")
	assert.Contains(t, s, "alias: /load_from_memory")
	assert.Contains(t, s, "Start or resume chatting with the AI assistant")
}

func TestShowHistoryAndMarkdown(t *testing.T) {
	c, out := newTestConsole("")
	c.ShowHistory([]profile.Turn{{At: time.Now(), User: "how many sets?", Assistant: "Do **three** sets."}})
	c.ShowMarkdown("Your Diet Plan", "# Breakfast\n\nOats")

	s := out.String()
	assert.Contains(t, s, "Last 1 messages")
	assert.Contains(t, s, "how many sets?")
	assert.Contains(t, s, "three")
	assert.Contains(t, s, "Your Diet Plan")
	assert.Contains(t, s, "Oats")
}
