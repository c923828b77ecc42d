package domain

import "math"

const kgToLb = 2.2046226218

// Weight units accepted by chart and history views. Check-ins are stored in kg.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKg && to == UnitLb {
		return v * kgToLb
	}
	if from == UnitLb && to == UnitKg {
		return v / kgToLb
	}
	return v
}

// RoundTenth rounds v to one decimal place, halves away from zero.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
