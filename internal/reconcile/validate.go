package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kalambet/fitai/internal/profile"
)

var (
	// ErrRejected means a candidate value failed its field's rule.
	ErrRejected = errors.New("value rejected")
	// ErrUnknownField means an update named a field outside the closed set.
	ErrUnknownField = errors.New("unknown profile field")
)

// Value is a validated, typed field value.
type Value struct {
	Field profile.Field
	Int   int
	Float float64
	Text  string
}

// String renders the value the way it is stored.
func (v Value) String() string {
	switch v.Field {
	case profile.FieldAge:
		return strconv.Itoa(v.Int)
	case profile.FieldWeight, profile.FieldHeight:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	}
	return v.Text
}

// handler is the validation and application logic for one field.
type handler struct {
	parse   func(raw string) (Value, error)
	current func(p profile.Profile) Value
	apply   func(p *profile.Profile, v Value)
}

var handlers = map[profile.Field]handler{
	profile.FieldWeight: {
		parse:   floatIn(profile.FieldWeight, 30, 300),
		current: func(p profile.Profile) Value { return Value{Field: profile.FieldWeight, Float: p.WeightKG} },
		apply:   func(p *profile.Profile, v Value) { p.WeightKG = v.Float },
	},
	profile.FieldHeight: {
		parse:   floatIn(profile.FieldHeight, 100, 250),
		current: func(p profile.Profile) Value { return Value{Field: profile.FieldHeight, Float: p.HeightCM} },
		apply:   func(p *profile.Profile, v Value) { p.HeightCM = v.Float },
	},
	profile.FieldAge: {
		parse:   intIn(profile.FieldAge, 12, 120),
		current: func(p profile.Profile) Value { return Value{Field: profile.FieldAge, Int: p.Age} },
		apply:   func(p *profile.Profile, v Value) { p.Age = v.Int },
	},
	profile.FieldActivity: {
		parse: oneOf(profile.FieldActivity, profile.ActivityLevels),
		current: func(p profile.Profile) Value {
			return Value{Field: profile.FieldActivity, Text: string(p.ActivityLevel)}
		},
		apply: func(p *profile.Profile, v Value) { p.ActivityLevel = profile.ActivityLevel(v.Text) },
	},
	profile.FieldGoal: {
		parse: oneOf(profile.FieldGoal, profile.FitnessGoals),
		current: func(p profile.Profile) Value {
			return Value{Field: profile.FieldGoal, Text: string(p.FitnessGoal)}
		},
		apply: func(p *profile.Profile, v Value) { p.FitnessGoal = profile.FitnessGoal(v.Text) },
	},
	profile.FieldDiet: {
		parse: oneOf(profile.FieldDiet, profile.DietaryPreferences),
		current: func(p profile.Profile) Value {
			return Value{Field: profile.FieldDiet, Text: string(p.DietaryPreference)}
		},
		apply: func(p *profile.Profile, v Value) { p.DietaryPreference = profile.DietaryPreference(v.Text) },
	},
}

// Validate parses raw for field and checks it against the field's rule.
func Validate(field profile.Field, raw string) (Value, error) {
	h, ok := handlers[field]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return h.parse(strings.TrimSpace(raw))
}

func floatIn(f profile.Field, lo, hi float64) func(string) (Value, error) {
	return func(raw string) (Value, error) {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("%w: %s %q is not a number", ErrRejected, f, raw)
		}
		if v < lo || v > hi {
			return Value{}, fmt.Errorf("%w: %s %v outside [%v, %v]", ErrRejected, f, v, lo, hi)
		}
		return Value{Field: f, Float: v}, nil
	}
}

func intIn(f profile.Field, lo, hi int) func(string) (Value, error) {
	return func(raw string) (Value, error) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s %q is not a whole number", ErrRejected, f, raw)
		}
		if v < lo || v > hi {
			return Value{}, fmt.Errorf("%w: %s %d outside [%d, %d]", ErrRejected, f, v, lo, hi)
		}
		return Value{Field: f, Int: v}, nil
	}
}

// oneOf accepts a domain member, matching case-insensitively and
// returning the canonical spelling.
func oneOf[T ~string](f profile.Field, domain []T) func(string) (Value, error) {
	return func(raw string) (Value, error) {
		for _, d := range domain {
			if strings.EqualFold(string(d), raw) {
				return Value{Field: f, Text: string(d)}, nil
			}
		}
		return Value{}, fmt.Errorf("%w: %s %q is not one of %v", ErrRejected, f, raw, domain)
	}
}
