package profile

import (
	"fmt"
	"strings"
	"time"
)

// Summary renders the profile block injected into model prompts.
func Summary(p Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Age: %d years\n", p.Age)
	fmt.Fprintf(&b, "- Height: %s cm\n", formatNumber(p.HeightCM))
	fmt.Fprintf(&b, "- Weight: %s kg\n", formatNumber(p.WeightKG))
	fmt.Fprintf(&b, "- BMI: %.2f (%s)\n", p.BMI(), p.BMICategory())
	fmt.Fprintf(&b, "- Activity Level: %s\n", p.ActivityLevel)
	fmt.Fprintf(&b, "- Fitness Goal: %s\n", p.FitnessGoal)
	fmt.Fprintf(&b, "- Dietary Preference: %s", p.DietaryPreference)
	if p.BloodGroup != "" {
		fmt.Fprintf(&b, "\n- Blood Group: %s", p.BloodGroup)
	}
	return b.String()
}

// FormatValue renders a field of p for display.
func FormatValue(p Profile, f Field) string {
	switch f {
	case FieldWeight:
		return formatNumber(p.WeightKG) + " kg"
	case FieldHeight:
		return formatNumber(p.HeightCM) + " cm"
	case FieldAge:
		return fmt.Sprintf("%d", p.Age)
	case FieldActivity:
		return string(p.ActivityLevel)
	case FieldGoal:
		return string(p.FitnessGoal)
	case FieldDiet:
		return string(p.DietaryPreference)
	}
	return ""
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Snapshot is the wire and export shape of a profile, with derived values
// filled in.
type Snapshot struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Age               int         `json:"age"`
	HeightCM          float64     `json:"height_cm"`
	WeightKG          float64     `json:"weight_kg"`
	BMI               float64     `json:"bmi"`
	BMICategory       BMICategory `json:"bmi_category"`
	ActivityLevel     string      `json:"activity_level"`
	FitnessGoal       string      `json:"fitness_goal"`
	DietaryPreference string      `json:"dietary_preference"`
	BloodGroup        string      `json:"blood_group,omitempty"`
	WorkoutPlan       *PlanView   `json:"workout_plan,omitempty"`
	DietPlan          *PlanView   `json:"diet_plan,omitempty"`
	History           []TurnView  `json:"history,omitempty"`
}

// PlanView is the wire shape of a Plan.
type PlanView struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TurnView is the wire shape of a Turn.
type TurnView struct {
	At        time.Time `json:"at"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
}

// NewSnapshot builds a Snapshot. History is included only when withHistory
// is set.
func NewSnapshot(p Profile, withHistory bool) Snapshot {
	s := Snapshot{
		ID:                p.ID,
		Name:              p.Name,
		Age:               p.Age,
		HeightCM:          p.HeightCM,
		WeightKG:          p.WeightKG,
		BMI:               p.BMI(),
		BMICategory:       p.BMICategory(),
		ActivityLevel:     string(p.ActivityLevel),
		FitnessGoal:       string(p.FitnessGoal),
		DietaryPreference: string(p.DietaryPreference),
		BloodGroup:        p.BloodGroup,
	}
	if p.Workout != nil {
		s.WorkoutPlan = &PlanView{Text: p.Workout.Text, UpdatedAt: p.Workout.UpdatedAt}
	}
	if p.Diet != nil {
		s.DietPlan = &PlanView{Text: p.Diet.Text, UpdatedAt: p.Diet.UpdatedAt}
	}
	if withHistory {
		s.History = TurnViews(p.History)
	}
	return s
}

// TurnViews converts turns to their wire shape.
func TurnViews(turns []Turn) []TurnView {
	out := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		out = append(out, TurnView{At: t.At, User: t.User, Assistant: t.Assistant})
	}
	return out
}
