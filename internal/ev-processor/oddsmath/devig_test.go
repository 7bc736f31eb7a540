package oddsmath_test

import (
	"math"
	"testing"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/oddsmath"
)

func TestDevigTwoSided(t *testing.T) {
	tests := []struct {
		name      string
		p1, p2    float64
		wantFair1 float64
		wantFair2 float64
	}{
		{"standard -110/-110", 0.5238, 0.5238, 0.50, 0.50},
		{"asymmetric -120/-110", 0.5455, 0.5238, 0.5101, 0.4899},
		{"heavy favorite", 0.6667, 0.3704, 0.6429, 0.3571},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair1, fair2 := oddsmath.DevigTwoSided(tt.p1, tt.p2)
			if math.Abs(fair1-tt.wantFair1) > 0.001 || math.Abs(fair2-tt.wantFair2) > 0.001 {
				t.Errorf("DevigTwoSided(%f, %f) = (%f, %f), want (%f, %f)",
					tt.p1, tt.p2, fair1, fair2, tt.wantFair1, tt.wantFair2)
			}
			if math.Abs(fair1+fair2-1.0) > 1e-9 {
				t.Errorf("de-vigged probabilities must sum to 1, got %f", fair1+fair2)
			}
		})
	}
}

func TestDevigTwoSidedNoOpWhenUnderRound(t *testing.T) {
	fair1, fair2 := oddsmath.DevigTwoSided(0.45, 0.50)
	if fair1 != 0.45 || fair2 != 0.50 {
		t.Errorf("under-round input must pass through, got (%f, %f)", fair1, fair2)
	}
}

func TestNormalizeMultiWay(t *testing.T) {
	probs := []float64{0.40, 0.35, 0.30} // soma 1.05
	out := oddsmath.NormalizeMultiWay(probs)

	sum := 0.0
	for _, p := range out {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("normalized probabilities must sum to 1, got %f", sum)
	}
	if math.Abs(out[0]-0.40/1.05) > 1e-9 {
		t.Errorf("out[0] = %f, want %f", out[0], 0.40/1.05)
	}

	// entrada não pode ser mutada
	if probs[0] != 0.40 {
		t.Errorf("input mutated: %v", probs)
	}
}

func TestNormalizeMultiWayNoOpWhenUnderRound(t *testing.T) {
	probs := []float64{0.30, 0.30, 0.30}
	out := oddsmath.NormalizeMultiWay(probs)
	for i := range probs {
		if out[i] != probs[i] {
			t.Errorf("under-round input must pass through, got %v", out)
		}
	}
}
