package profile

import "testing"

func TestComputeBMI(t *testing.T) {
	tests := []struct {
		name     string
		heightCM float64
		weightKG float64
		want     float64
	}{
		{"typical", 175, 80, 26.12},
		{"short", 150, 45, 20},
		{"tall heavy", 200, 150, 37.5},
		{"zero height", 0, 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeBMI(tt.heightCM, tt.weightKG); got != tt.want {
				t.Errorf("ComputeBMI(%v, %v) = %v, want %v", tt.heightCM, tt.weightKG, got, tt.want)
			}
		})
	}
}

func TestCategoryFor_Boundaries(t *testing.T) {
	tests := []struct {
		bmi  float64
		want BMICategory
	}{
		{18.49, Underweight},
		{18.5, Normal},
		{24.99, Normal},
		{25.0, Overweight},
		{29.99, Overweight},
		{30.0, Obese},
		{45, Obese},
	}
	for _, tt := range tests {
		if got := CategoryFor(tt.bmi); got != tt.want {
			t.Errorf("CategoryFor(%v) = %q, want %q", tt.bmi, got, tt.want)
		}
	}
}

func TestProfileBMIFollowsWeight(t *testing.T) {
	p := Profile{HeightCM: 175, WeightKG: 80}
	if p.BMICategory() != Overweight {
		t.Fatalf("category = %q, want Overweight", p.BMICategory())
	}
	p.WeightKG = 70
	if got := p.BMI(); got != 22.86 {
		t.Errorf("BMI after change = %v, want 22.86", got)
	}
	if p.BMICategory() != Normal {
		t.Errorf("category after change = %q, want Normal", p.BMICategory())
	}
}
