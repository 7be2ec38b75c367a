package profile

import (
	"errors"
	"time"
)

// ErrNotFound is returned by a Gateway when no profile exists for an id.
var ErrNotFound = errors.New("profile not found")

// ErrPersistence marks failures writing a profile to durable storage.
var ErrPersistence = errors.New("profile persistence failed")

// ActivityLevel is one of the supported activity levels.
type ActivityLevel string

const (
	Sedentary ActivityLevel = "Sedentary"
	Moderate  ActivityLevel = "Moderate"
	Active    ActivityLevel = "Active"
)

// FitnessGoal is one of the supported training goals.
type FitnessGoal string

const (
	WeightLoss FitnessGoal = "Weight Loss"
	MuscleGain FitnessGoal = "Muscle Gain"
	Endurance  FitnessGoal = "Endurance"
)

// DietaryPreference is one of the supported diets.
type DietaryPreference string

const (
	Vegan         DietaryPreference = "Vegan"
	Vegetarian    DietaryPreference = "Vegetarian"
	NonVegetarian DietaryPreference = "Non-vegetarian"
)

// ActivityLevels lists the activity domain in display order.
var ActivityLevels = []ActivityLevel{Sedentary, Moderate, Active}

// FitnessGoals lists the goal domain in display order.
var FitnessGoals = []FitnessGoal{WeightLoss, MuscleGain, Endurance}

// DietaryPreferences lists the diet domain in display order.
var DietaryPreferences = []DietaryPreference{Vegan, Vegetarian, NonVegetarian}

// Field names an updatable profile attribute.
type Field string

const (
	FieldWeight   Field = "weight_kg"
	FieldHeight   Field = "height_cm"
	FieldAge      Field = "age"
	FieldActivity Field = "activity_level"
	FieldGoal     Field = "fitness_goal"
	FieldDiet     Field = "dietary_preference"
)

var fields = []Field{FieldWeight, FieldHeight, FieldAge, FieldActivity, FieldGoal, FieldDiet}

// Fields returns the updatable fields in canonical application order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ParseField maps a field name to its Field. The second result is false for
// names outside the updatable set.
func ParseField(name string) (Field, bool) {
	for _, f := range fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Label is the human-readable name of the field.
func (f Field) Label() string {
	switch f {
	case FieldWeight:
		return "Weight"
	case FieldHeight:
		return "Height"
	case FieldAge:
		return "Age"
	case FieldActivity:
		return "Activity level"
	case FieldGoal:
		return "Fitness goal"
	case FieldDiet:
		return "Dietary preference"
	}
	return string(f)
}

// PlanKind distinguishes the two plans a profile owns.
type PlanKind string

const (
	WorkoutPlan PlanKind = "workout"
	DietPlan    PlanKind = "diet"
)

// Plan is free-form generated text. A plan is only ever replaced as a whole.
type Plan struct {
	Text      string
	UpdatedAt time.Time
}

// Turn is one exchange between the user and the assistant.
type Turn struct {
	At        time.Time
	User      string
	Assistant string
}

// Profile is the user's persistent fitness record. BMI and its category are
// derived on demand from height and weight and never stored.
type Profile struct {
	ID                string
	Name              string
	Age               int
	HeightCM          float64
	WeightKG          float64
	ActivityLevel     ActivityLevel
	FitnessGoal       FitnessGoal
	DietaryPreference DietaryPreference
	BloodGroup        string

	Workout *Plan
	Diet    *Plan

	// History is append-only and ordered by time.
	History []Turn
}

// Plan returns the plan of the given kind, or nil.
func (p *Profile) Plan(kind PlanKind) *Plan {
	switch kind {
	case WorkoutPlan:
		return p.Workout
	case DietPlan:
		return p.Diet
	}
	return nil
}

// SetPlan replaces the plan of the given kind.
func (p *Profile) SetPlan(kind PlanKind, plan Plan) {
	switch kind {
	case WorkoutPlan:
		p.Workout = &plan
	case DietPlan:
		p.Diet = &plan
	}
}

// AppendTurn records an exchange at the end of the history.
func (p *Profile) AppendTurn(t Turn) {
	p.History = append(p.History, t)
}

// RecentTurns returns at most the last n turns, oldest first.
func (p Profile) RecentTurns(n int) []Turn {
	if n <= 0 || len(p.History) == 0 {
		return nil
	}
	start := len(p.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(p.History)-start)
	copy(out, p.History[start:])
	return out
}

// Clone returns a copy that shares no mutable state with p.
func (p Profile) Clone() Profile {
	cp := p
	if p.Workout != nil {
		w := *p.Workout
		cp.Workout = &w
	}
	if p.Diet != nil {
		d := *p.Diet
		cp.Diet = &d
	}
	if p.History != nil {
		cp.History = make([]Turn, len(p.History))
		copy(cp.History, p.History)
	}
	return cp
}
