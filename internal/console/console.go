// Package console is the terminal front end for chat sessions and
// onboarding: line input, confirmations, styled status lines and markdown
// panels.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const wrapWidth = 80

// Console reads answers from in and writes everything to out.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	fd       int
	tty      bool
	renderer *glamour.TermRenderer
	st       styles
}

// New creates a Console. With noColor set, output carries no ANSI styling
// and markdown is rendered as plain text.
func New(in io.Reader, out io.Writer, noColor bool) *Console {
	c := &Console{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
		c.tty = true
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrapWidth)}
	if noColor {
		opts = append(opts, glamour.WithStylePath("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	// A nil renderer falls back to raw markdown.
	c.renderer, _ = glamour.NewTermRenderer(opts...)
	c.st = newStyles(lipgloss.NewRenderer(out), noColor)
	return c
}

// ReadLine prints prompt and returns the next input line without its line
// terminator. It returns io.EOF once input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", c.st.prompt.Render(prompt))
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password reads a secret without echo when attached to a terminal.
func (c *Console) Password(prompt string) (string, error) {
	if !c.tty {
		return c.ReadLine(prompt)
	}
	fmt.Fprintf(c.out, "%s: ", c.st.prompt.Render(prompt))
	b, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// Confirm asks a yes/no question until it gets one of y, yes, n or no.
func (c *Console) Confirm(question string) (bool, error) {
	for {
		answer, err := c.ReadLine(question + " (y/n)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		c.Error("Please answer 'y' or 'n'.")
	}
}

func (c *Console) Info(msg string)    { c.line(c.st.info, "→ ", msg) }
func (c *Console) Success(msg string) { c.line(c.st.success, "✓ ", msg) }
func (c *Console) Warn(msg string)    { c.line(c.st.warn, "⚠ ", msg) }
func (c *Console) Error(msg string)   { c.line(c.st.err, "✗ ", msg) }

func (c *Console) line(s lipgloss.Style, prefix, msg string) {
	fmt.Fprintln(c.out, s.Render(prefix+msg))
}

// ShowMarkdown renders body as markdown under a title bar.
func (c *Console) ShowMarkdown(title, body string) {
	fmt.Fprintln(c.out, c.st.title.Render(title))
	fmt.Fprintln(c.out, c.markdown(body))
}

func (c *Console) markdown(body string) string {
	if c.renderer == nil {
		return body
	}
	out, err := c.renderer.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimRight(out, "\n")
}
