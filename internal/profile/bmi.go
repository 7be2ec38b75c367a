package profile

import "math"

// BMICategory buckets a body mass index.
type BMICategory string

const (
	Underweight BMICategory = "Underweight"
	Normal      BMICategory = "Normal"
	Overweight  BMICategory = "Overweight"
	Obese       BMICategory = "Obese"
)

// ComputeBMI returns weight / (height in metres)^2 rounded to two decimals.
func ComputeBMI(heightCM, weightKG float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return math.Round(weightKG/(m*m)*100) / 100
}

// CategoryFor classifies a BMI value. Lower bounds are inclusive.
func CategoryFor(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// BMI is derived from the current height and weight.
func (p Profile) BMI() float64 {
	return ComputeBMI(p.HeightCM, p.WeightKG)
}

func (p Profile) BMICategory() BMICategory {
	return CategoryFor(p.BMI())
}
