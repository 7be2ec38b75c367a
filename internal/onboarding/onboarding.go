// Package onboarding collects a new user's profile through a short
// questionnaire.
package onboarding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

// Prompter is the subset of the console the questionnaire needs.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	Info(msg string)
	Error(msg string)
}

var hints = map[profile.Field]string{
	profile.FieldAge:    "Please enter a valid age between 12 and 120.",
	profile.FieldHeight: "Please enter a valid height between 100 and 250 cm.",
	profile.FieldWeight: "Please enter a valid weight between 30 and 300 kg.",
}

// Questionnaire asks each profile question until it gets a valid answer.
type Questionnaire struct {
	ui    Prompter
	newID func() string
}

func New(ui Prompter) *Questionnaire {
	return &Questionnaire{ui: ui, newID: uuid.NewString}
}

// Collect runs the questionnaire and returns a profile with a fresh id and
// no plans. Input errors, including end of input, abort it.
func (q *Questionnaire) Collect() (profile.Profile, error) {
	q.ui.Info("Let's collect some information to create your personalized fitness plan.")

	p := profile.Profile{ID: q.newID()}
	var err error

	if p.Name, err = q.required("What's your name?"); err != nil {
		return profile.Profile{}, err
	}

	age, err := q.number(profile.FieldAge, "What's your age?")
	if err != nil {
		return profile.Profile{}, err
	}
	height, err := q.number(profile.FieldHeight, "What's your height in centimeters?")
	if err != nil {
		return profile.Profile{}, err
	}
	weight, err := q.number(profile.FieldWeight, "What's your weight in kilograms?")
	if err != nil {
		return profile.Profile{}, err
	}
	p.Age, p.HeightCM, p.WeightKG = age.Int, height.Float, weight.Float

	blood, err := q.ui.ReadLine("What's your blood group? (optional, press Enter to skip)")
	if err != nil {
		return profile.Profile{}, err
	}
	p.BloodGroup = strings.ToUpper(strings.TrimSpace(blood))

	activity, err := menu(q, "What's your activity level?", profile.ActivityLevels)
	if err != nil {
		return profile.Profile{}, err
	}
	goal, err := menu(q, "What's your fitness goal?", profile.FitnessGoals)
	if err != nil {
		return profile.Profile{}, err
	}
	diet, err := menu(q, "What's your dietary preference?", profile.DietaryPreferences)
	if err != nil {
		return profile.Profile{}, err
	}
	p.ActivityLevel, p.FitnessGoal, p.DietaryPreference = activity, goal, diet
	return p, nil
}

func (q *Questionnaire) required(prompt string) (string, error) {
	for {
		answer, err := q.ui.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
		q.ui.Error("This field is required.")
	}
}

func (q *Questionnaire) number(f profile.Field, prompt string) (reconcile.Value, error) {
	for {
		answer, err := q.ui.ReadLine(prompt)
		if err != nil {
			return reconcile.Value{}, err
		}
		v, err := reconcile.Validate(f, answer)
		if err == nil {
			return v, nil
		}
		if _, perr := strconv.ParseFloat(strings.TrimSpace(answer), 64); perr != nil {
			q.ui.Error("Please enter a valid number.")
			continue
		}
		q.ui.Error(hints[f])
	}
}

func menu[T ~string](q *Questionnaire, question string, options []T) (T, error) {
	var b strings.Builder
	b.WriteString(question)
	for i, o := range options {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, o)
	}
	b.WriteString("\nEnter the number of your choice")
	prompt := b.String()

	for {
		answer, err := q.ui.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		i, err := strconv.Atoi(strings.TrimSpace(answer))
		if err == nil && i >= 1 && i <= len(options) {
			return options[i-1], nil
		}
		q.ui.Error(fmt.Sprintf("Please enter a number between 1 and %d.", len(options)))
	}
}
