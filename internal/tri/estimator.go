package tri

import (
	"context"
	"fmt"

	"triscore-platform/internal/models"
)

// StatisticsProvider supplies one immutable statistics snapshot per
// reference year. Implemented by statistics.Store; tests substitute
// deterministic fixtures.
type StatisticsProvider interface {
	Load(ctx context.Context, year int) ([]models.AreaStatistics, error)
}

// Estimator produces scenario estimates for one area using reference-year
// statistics and, when present, the test-taker's calibration fit. The
// calibration choice is resolved once at construction: a nil fit means the
// default model applies unmodified.
type Estimator struct {
	provider    StatisticsProvider
	calibration *models.CalibrationParameters
}

// NewEstimator creates an estimator. calibration may be nil.
func NewEstimator(provider StatisticsProvider, calibration *models.CalibrationParameters) *Estimator {
	return &Estimator{
		provider:    provider,
		calibration: calibration,
	}
}

// Estimate projects the three-scenario score for an area. correctAnswers
// must be within [0, question count] or an OutOfRangeError is returned
// before any statistics are touched.
func (e *Estimator) Estimate(ctx context.Context, area models.Area, correctAnswers, referenceYear int) (models.ScenarioScore, error) {
	if correctAnswers < 0 || correctAnswers > models.QuestionsPerArea {
		return models.ScenarioScore{}, &models.OutOfRangeError{
			Field: "correct_answers",
			Value: float64(correctAnswers),
			Min:   0,
			Max:   models.QuestionsPerArea,
		}
	}

	stats, err := e.areaStatistics(ctx, area, referenceYear)
	if err != nil {
		return models.ScenarioScore{}, err
	}

	projection := Project(correctAnswers, stats)

	if e.calibration != nil && e.calibration.Area == area {
		projection = recenter(projection, e.calibration.PredictScore(correctAnswers), stats)
	}

	return projection, nil
}

// ConfidenceInterval returns the symmetric interval calculated ± z*·stddev
// for the given confidence level, clamped to the historical score band.
func (e *Estimator) ConfidenceInterval(ctx context.Context, area models.Area, correctAnswers, referenceYear int, confidenceLevel float64) (float64, float64, error) {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		return 0, 0, &models.OutOfRangeError{
			Field: "confidence_level",
			Value: confidenceLevel,
			Min:   0,
			Max:   1,
		}
	}

	projection, err := e.Estimate(ctx, area, correctAnswers, referenceYear)
	if err != nil {
		return 0, 0, err
	}

	stats, err := e.areaStatistics(ctx, area, referenceYear)
	if err != nil {
		return 0, 0, err
	}

	zStar := NormalQuantile((1 + confidenceLevel) / 2)
	margin := zStar * stats.StdDeviation

	lower := clampScore(projection.Calculated-margin, stats)
	upper := clampScore(projection.Calculated+margin, stats)
	return lower, upper, nil
}

// areaStatistics loads the reference-year snapshot and picks the area's
// record from it.
func (e *Estimator) areaStatistics(ctx context.Context, area models.Area, referenceYear int) (*models.AreaStatistics, error) {
	if !area.IsValid() {
		return nil, &models.InvalidInputError{Field: "area", Message: fmt.Sprintf("unknown area %q", area)}
	}

	snapshot, err := e.provider.Load(ctx, referenceYear)
	if err != nil {
		return nil, err
	}

	for i := range snapshot {
		if snapshot[i].Area == area {
			return &snapshot[i], nil
		}
	}
	return nil, &models.DataUnavailableError{Year: referenceYear}
}

// recenter shifts a default projection onto a personalized calculated
// value while preserving the default model's uncertainty band: the
// pessimistic and optimistic offsets move with the center instead of
// collapsing onto it.
func recenter(projection models.ScenarioScore, center float64, stats *models.AreaStatistics) models.ScenarioScore {
	down := projection.Calculated - projection.Pessimistic
	up := projection.Optimistic - projection.Calculated

	return models.ScenarioScore{
		Pessimistic: clampScore(center-down, stats),
		Calculated:  clampScore(center, stats),
		Optimistic:  clampScore(center+up, stats),
	}
}
