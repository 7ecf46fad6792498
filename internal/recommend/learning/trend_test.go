// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package learning

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestOLSSlope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"single sample", []float64{1}, 0},
		{"unit rise", []float64{1, 2, 3}, 1},
		{"steep fall", []float64{3, 1}, -2},
		{"flat", []float64{2, 2, 2}, 0},
		{"half rise", []float64{0, 0.5, 1.0, 1.5}, 0.5},
		{"noisy rise", []float64{0.1, 0.5, 0.3, 0.9}, 0.22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := olsSlope(tt.samples); !almostEqual(got, tt.want) {
				t.Errorf("olsSlope(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	samples := []float64{1, 2, 3, 4}

	if got := tail(samples, 2); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("tail(n=2) = %v, want [3 4]", got)
	}
	if got := tail(samples, 10); len(got) != 4 {
		t.Errorf("tail(n=10) = %v, want all samples", got)
	}
	if got := tail(samples, 0); len(got) != 4 {
		t.Errorf("tail(n=0) = %v, want all samples", got)
	}
	if got := tail(nil, 3); got != nil {
		t.Errorf("tail(nil) = %v, want nil", got)
	}
}
