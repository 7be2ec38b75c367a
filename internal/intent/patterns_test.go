package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalambet/fitai/internal/profile"
)

func TestPatternExtractor_Templates(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Updates
	}{
		{"weight is", "My weight is now 82.5 kg", Updates{profile.FieldWeight: {Value: "82.5"}}},
		{"weigh", "I now weigh 80 kg", Updates{profile.FieldWeight: {Value: "80"}}},
		{"weigh kilos", "i weigh 70 kilos these days", Updates{profile.FieldWeight: {Value: "70"}}},
		{"lost", "Great news, I've lost 3 kg!", Updates{profile.FieldWeight: {Value: "-3", Relative: true}}},
		{"lost curly apostrophe", "I’ve lost 2.5 kilograms", Updates{profile.FieldWeight: {Value: "-2.5", Relative: true}}},
		{"gained", "I have gained 4 kg", Updates{profile.FieldWeight: {Value: "4", Relative: true}}},
		{"changed to", "my weight has changed to 77 kg", Updates{profile.FieldWeight: {Value: "77"}}},
		{"update weight", "please update my weight to 90kg", Updates{profile.FieldWeight: {Value: "90"}}},
		{"i am kg", "I am currently 85 kg", Updates{profile.FieldWeight: {Value: "85"}}},
		{"height is", "My height is 180 cm", Updates{profile.FieldHeight: {Value: "180"}}},
		{"tall", "I am now 172.5 centimeters tall", Updates{profile.FieldHeight: {Value: "172.5"}}},
		{"update height", "update my height to 165 cm", Updates{profile.FieldHeight: {Value: "165"}}},
		{"age is", "My age is 31", Updates{profile.FieldAge: {Value: "31"}}},
		{"years old", "I am 45 years old", Updates{profile.FieldAge: {Value: "45"}}},
		{"turned", "I turned 40 yesterday", Updates{profile.FieldAge: {Value: "40"}}},
		{"activity is", "My activity level is now ACTIVE", Updates{profile.FieldActivity: {Value: "Active"}}},
		{"ly active", "I am moderately active", Updates{profile.FieldActivity: {Value: "Moderate"}}},
		{"update activity", "update my activity level to sedentary", Updates{profile.FieldActivity: {Value: "Sedentary"}}},
		{"goal loss", "I want to lose weight", Updates{profile.FieldGoal: {Value: "Weight Loss"}}},
		{"goal muscle", "time to build muscle", Updates{profile.FieldGoal: {Value: "Muscle Gain"}}},
		{"goal endurance", "working on my stamina", Updates{profile.FieldGoal: {Value: "Endurance"}}},
		{"vegan", "I went plant-based", Updates{profile.FieldDiet: {Value: "Vegan"}}},
		{"vegetarian", "I'm vegetarian now", Updates{profile.FieldDiet: {Value: "Vegetarian"}}},
		{"non-vegetarian", "I am non-vegetarian", Updates{profile.FieldDiet: {Value: "Non-vegetarian"}}},
		{"non vegetarian", "I am non vegetarian these days", Updates{profile.FieldDiet: {Value: "Non-vegetarian"}}},
		{"non-veg", "I'm non-veg", Updates{profile.FieldDiet: {Value: "Non-vegetarian"}}},
		{"non veg", "switched to non veg food", Updates{profile.FieldDiet: {Value: "Non-vegetarian"}}},
		{"meat", "I started eating meat again", Updates{profile.FieldDiet: {Value: "Non-vegetarian"}}},
	}
	x := NewPatternExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.Extract(context.Background(), tt.message))
		})
	}
}

func TestPatternExtractor_NoUpdates(t *testing.T) {
	x := NewPatternExtractor()
	for _, msg := range []string{
		"",
		"What should I eat before a run?",
		"How many sets of squats today?",
	} {
		assert.Empty(t, x.Extract(context.Background(), msg), msg)
	}
}

func TestPatternExtractor_FirstMatchWins(t *testing.T) {
	x := NewPatternExtractor()
	got := x.Extract(context.Background(), "my weight is 80 kg, update my weight to 90 kg")
	assert.Equal(t, Candidate{Value: "80"}, got[profile.FieldWeight])
}

func TestPatternExtractor_OutOfDomainActivityDiscarded(t *testing.T) {
	x := NewPatternExtractor()
	got := x.Extract(context.Background(), "I am highly active")
	assert.NotContains(t, got, profile.FieldActivity)
}

func TestPatternExtractor_MultipleFields(t *testing.T) {
	x := NewPatternExtractor()
	got := x.Extract(context.Background(), "I now weigh 80 kg and I want to build muscle")
	assert.Equal(t, Updates{
		profile.FieldWeight: {Value: "80"},
		profile.FieldGoal:   {Value: "Muscle Gain"},
	}, got)
	assert.Equal(t, []profile.Field{profile.FieldWeight, profile.FieldGoal}, got.Fields())
}

func TestPatternExtractor_OutOfRangeStillExtracted(t *testing.T) {
	// Range checks belong to the validator.
	x := NewPatternExtractor()
	got := x.Extract(context.Background(), "I now weigh 500 kg")
	assert.Equal(t, Candidate{Value: "500"}, got[profile.FieldWeight])
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Moderate", capitalize("mODERATE"))
	assert.Equal(t, "", capitalize(""))
}
