// Package tri implements the score estimation core: the per-area score
// mapping model, the three-scenario projection, and personal calibration
// against a test-taker's own historical results.
//
// The official item-response model is confidential, so the projection
// approximates it from per-year aggregate statistics. All computation here
// is pure and deterministic: no I/O, no hidden state.
package tri

import (
	"math"

	"triscore-platform/internal/models"
)

const (
	// curveCenter anchors z=0 at the historical mean performance (50% of
	// the questions).
	curveCenter = 0.5

	// curveSteepness controls how fast the curve moves through the score
	// distribution around the center.
	curveSteepness = 0.15

	// zSpan caps the standardized position at ±3 historical standard
	// deviations.
	zSpan = 3.0
)

// StandardizedPosition converts a raw correct-answer count into a
// standardized position z, in units of historical standard deviation from
// the historical mean.
//
// The interior of the domain uses a monotonic logistic curve centered on
// mean performance. Within one question of either extreme the logistic
// curve saturates, so a linear ramp toward ±zSpan is used instead.
func StandardizedPosition(correctAnswers, questionCount int) float64 {
	p := float64(correctAnswers) / float64(questionCount)

	if correctAnswers <= 1 || correctAnswers >= questionCount-1 {
		return zSpan * (2*p - 1)
	}

	sigmoid := 1.0 / (1.0 + math.Exp(-(p-curveCenter)/curveSteepness))
	return zSpan * (2*sigmoid - 1)
}

// Project maps a correct-answer count, given one year's area statistics,
// to the three-scenario projection. The calculated score sits z standard
// deviations from the historical mean; the pessimistic and optimistic
// scenarios sit one standard deviation below and above it. Every scenario
// is clamped independently to the historical [min, max] band.
func Project(correctAnswers int, stats *models.AreaStatistics) models.ScenarioScore {
	z := StandardizedPosition(correctAnswers, stats.QuestionCount)

	return models.ScenarioScore{
		Pessimistic: clampScore(stats.MeanScore+(z-1)*stats.StdDeviation, stats),
		Calculated:  clampScore(stats.MeanScore+z*stats.StdDeviation, stats),
		Optimistic:  clampScore(stats.MeanScore+(z+1)*stats.StdDeviation, stats),
	}
}

// clampScore bounds a projected value to the historical score band.
// Clamping happens only at the output boundary; inputs are validated, not
// clamped.
func clampScore(score float64, stats *models.AreaStatistics) float64 {
	if score < stats.MinScore {
		return stats.MinScore
	}
	if score > stats.MaxScore {
		return stats.MaxScore
	}
	return score
}
