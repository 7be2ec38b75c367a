package console

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#8BC34A")
	blue    = lipgloss.Color("#2196F3")
	yellow  = lipgloss.Color("#FFC107")
	red     = lipgloss.Color("#e53935")
	muted   = lipgloss.Color("#7a8599")
	heading = lipgloss.Color("#f2f2f2")
)

type styles struct {
	title   lipgloss.Style
	prompt  lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	panel   lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, noColor bool) styles {
	panel := r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		plain := r.NewStyle()
		return styles{
			title:   plain,
			prompt:  plain,
			label:   plain,
			muted:   plain,
			panel:   panel.Border(lipgloss.NormalBorder()),
			info:    plain,
			success: plain,
			warn:    plain,
			err:     plain,
		}
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(heading).Background(blue).Padding(0, 1),
		prompt:  r.NewStyle().Bold(true).Foreground(accent),
		label:   r.NewStyle().Bold(true).Foreground(blue),
		muted:   r.NewStyle().Foreground(muted),
		panel:   panel.BorderForeground(accent),
		info:    r.NewStyle().Foreground(blue),
		success: r.NewStyle().Foreground(accent),
		warn:    r.NewStyle().Foreground(yellow),
		err:     r.NewStyle().Foreground(red),
	}
}
