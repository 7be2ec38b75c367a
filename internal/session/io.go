package session

import "github.com/kalambet/fitai/internal/profile"

// IO is everything the session needs from its front end. ReadLine returns
// io.EOF when input is exhausted, which ends the session.
type IO interface {
	ReadLine(prompt string) (string, error)
	Confirm(question string) (bool, error)

	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)

	ShowMarkdown(title, body string)
	ShowProfile(p profile.Profile)
	ShowHistory(turns []profile.Turn)
	ShowCommands(cmds []Command)
}

// NopIO discards all output and declines every confirmation. Used by
// non-interactive callers such as the HTTP API.
type NopIO struct{}

func (NopIO) ReadLine(string) (string, error) { return "", errNoInput }
func (NopIO) Confirm(string) (bool, error) { return false, nil }
func (NopIO) Info(string) {}
func (NopIO) Success(string) {}
func (NopIO) Warn(string) {}
func (NopIO) Error(string) {}
func (NopIO) ShowMarkdown(string, string) {}
func (NopIO) ShowProfile(profile.Profile) {}
func (NopIO) ShowHistory([]profile.Turn) {}
func (NopIO) ShowCommands([]Command) {}
