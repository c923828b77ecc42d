package domain_test

import (
	"math"
	"testing"

	"gymos/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		want     float64
	}{
		{"kg to lb", 100.0, "kg", "lb", 220.46226218},
		{"lb to kg", 220.46226218, "lb", "kg", 100.0},
		{"same unit", 80.0, "kg", "kg", 80.0},
		{"unknown units", 50.0, "st", "kg", 50.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertWeight(tc.value, tc.from, tc.to)
			if !almostEqual(got, tc.want, 0.001) {
				t.Errorf("ConvertWeight(%v, %q, %q) = %v; want %v", tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestRoundTenth(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5, 5},
		{-5, -5},
		{2.25, 2.3},
		{2.24, 2.2},
		{-0.36, -0.4},
		{0, 0},
	}
	for _, tc := range tests {
		if got := domain.RoundTenth(tc.in); !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("RoundTenth(%v) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
