package session

import (
	"fmt"
	"strings"
)

// RegenPolicy decides whether plans are regenerated after a profile change.
type RegenPolicy string

const (
	// RegenAsk asks the user each time.
	RegenAsk RegenPolicy = "ask"
	// RegenAlways regenerates without asking.
	RegenAlways RegenPolicy = "always"
	// RegenNever keeps existing plans.
	RegenNever RegenPolicy = "never"
)

// ParsePolicy accepts ask, always or never, case-insensitively. Empty
// selects RegenAsk.
func ParsePolicy(s string) (RegenPolicy, error) {
	switch p := RegenPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RegenAsk, nil
	case RegenAsk, RegenAlways, RegenNever:
		return p, nil
	}
	return "", fmt.Errorf("invalid regeneration policy %q (want ask, always or never)", s)
}
