// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package learning

// olsSlope fits an ordinary least squares line through the samples,
// with x running 0..n-1, and returns its slope. Fewer than two samples
// carry no trend.
func olsSlope(samples []float64) float64 {
	n := float64(len(samples))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64

	for i, y := range samples {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denom
}

// tail returns the last n samples.
func tail(samples []float64, n int) []float64 {
	if n <= 0 || len(samples) <= n {
		return samples
	}

	return samples[len(samples)-n:]
}
