package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/session"
)

const timeLayout = "2006-01-02 15:04"

// ShowProfile prints the profile card with derived BMI.
func (c *Console) ShowProfile(p profile.Profile) {
	rows := [][2]string{
		{"Name", p.Name},
		{"Age", fmt.Sprintf("%d years", p.Age)},
		{"Height", profile.FormatValue(p, profile.FieldHeight)},
		{"Weight", profile.FormatValue(p, profile.FieldWeight)},
		{"BMI", fmt.Sprintf("%.2f (%s)", p.BMI(), p.BMICategory())},
		{"Activity Level", string(p.ActivityLevel)},
		{"Fitness Goal", string(p.FitnessGoal)},
		{"Dietary Preference", string(p.DietaryPreference)},
	}
	if p.BloodGroup != "" {
		rows = append(rows, [2]string{"Blood Group", p.BloodGroup})
	}
	if p.Workout != nil {
		rows = append(rows, [2]string{"Workout Plan Updated", p.Workout.UpdatedAt.Local().Format(timeLayout)})
	}
	if p.Diet != nil {
		rows = append(rows, [2]string{"Diet Plan Updated", p.Diet.UpdatedAt.Local().Format(timeLayout)})
	}

	fmt.Fprintln(c.out, c.st.title.Render("Your Profile"))
	fmt.Fprintln(c.out, c.st.panel.Render(c.table(rows)))
}

// ShowHistory prints conversation turns oldest first.
func (c *Console) ShowHistory(turns []profile.Turn) {
	fmt.Fprintln(c.out, c.st.title.Render(fmt.Sprintf("Last %d messages", len(turns))))
	for _, t := range turns {
		fmt.Fprintln(c.out, c.st.muted.Render(t.At.Local().Format(timeLayout)))
		fmt.Fprintf(c.out, "%s %s\n", c.st.label.Render("You:"), t.User)
		fmt.Fprintf(c.out, "%s\n%s\n\n", c.st.label.Render("FitAI:"), c.markdown(t.Assistant))
	}
}

// ShowCommands prints the chat command reference.
func (c *Console) ShowCommands(cmds []session.Command) {
	rows := make([][2]string, 0, len(cmds))
	for _, cmd := range cmds {
		name := cmd.Name
		if cmd.Usage != "" {
			name += " " + cmd.Usage
		}
		help := cmd.Help
		if len(cmd.Aliases) > 0 {
			help += fmt.Sprintf(" (alias: %s)", strings.Join(cmd.Aliases, ", "))
		}
		rows = append(rows, [2]string{name, help})
	}
	fmt.Fprintln(c.out, c.st.title.Render("Available Commands"))
	fmt.Fprintln(c.out, c.st.panel.Render(c.table(rows)))
}

func (c *Console) table(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		key := c.st.label.Width(width + 2).Render(r[0])
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, key, r[1])
	}
	return strings.Join(lines, "\n")
}
