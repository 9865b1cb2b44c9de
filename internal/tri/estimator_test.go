package tri

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"triscore-platform/internal/models"
)

// fixtureProvider is a deterministic in-memory StatisticsProvider.
type fixtureProvider struct {
	years map[int][]models.AreaStatistics
	loads int64
}

func (f *fixtureProvider) Load(ctx context.Context, year int) ([]models.AreaStatistics, error) {
	atomic.AddInt64(&f.loads, 1)
	snapshot, ok := f.years[year]
	if !ok {
		return nil, &models.DataUnavailableError{Year: year}
	}
	return snapshot, nil
}

func newFixtureProvider(stats ...*models.AreaStatistics) *fixtureProvider {
	years := make(map[int][]models.AreaStatistics)
	for _, s := range stats {
		years[s.Year] = append(years[s.Year], *s)
	}
	return &fixtureProvider{years: years}
}

func TestEstimator_Estimate(t *testing.T) {
	provider := newFixtureProvider(
		reference2024Mathematics(),
		statsFixture(models.AreaLanguages, 2024, 520.0, 95.0, 300.0, 830.0),
	)
	estimator := NewEstimator(provider, nil)
	ctx := context.Background()

	got, err := estimator.Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if math.Abs(got.Calculated-705.3) > 0.5 {
		t.Errorf("Calculated = %v, want ~705.3", got.Calculated)
	}

	// Repeated calls return identical results.
	again, err := estimator.Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if got != again {
		t.Errorf("repeated estimates differ: %+v vs %+v", got, again)
	}
}

func TestEstimator_OutOfRange(t *testing.T) {
	provider := newFixtureProvider(reference2024Mathematics())
	estimator := NewEstimator(provider, nil)
	ctx := context.Background()

	for _, correct := range []int{-1, 46, 50} {
		_, err := estimator.Estimate(ctx, models.AreaMathematics, correct, 2024)

		var outOfRange *models.OutOfRangeError
		if !errors.As(err, &outOfRange) {
			t.Errorf("correct=%d: error = %v, want OutOfRangeError", correct, err)
		}
	}
}

func TestEstimator_DataUnavailable(t *testing.T) {
	provider := newFixtureProvider(reference2024Mathematics())
	estimator := NewEstimator(provider, nil)

	_, err := estimator.Estimate(context.Background(), models.AreaMathematics, 30, 1998)

	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want DataUnavailableError", err)
	}
	if unavailable.Year != 1998 {
		t.Errorf("Year = %v, want 1998", unavailable.Year)
	}
}

func TestEstimator_MissingAreaInYear(t *testing.T) {
	provider := newFixtureProvider(reference2024Mathematics())
	estimator := NewEstimator(provider, nil)

	_, err := estimator.Estimate(context.Background(), models.AreaLanguages, 30, 2024)

	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("error = %v, want DataUnavailableError for missing area", err)
	}
}

func TestEstimator_CalibrationRecentersPreservingSpread(t *testing.T) {
	stats := statsFixture(models.AreaMathematics, 2024, 500.0, 110.0, 100.0, 1000.0)
	provider := newFixtureProvider(stats)
	ctx := context.Background()

	calibration := &models.CalibrationParameters{
		Area:       models.AreaMathematics,
		Slope:      10.0,
		Intercept:  300.0,
		SampleSize: 2,
	}

	defaultProjection, err := NewEstimator(provider, nil).Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("default Estimate() error = %v", err)
	}
	calibrated, err := NewEstimator(provider, calibration).Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("calibrated Estimate() error = %v", err)
	}

	if math.Abs(calibrated.Calculated-650.0) > 1e-9 {
		t.Errorf("Calculated = %v, want personalized 650.0", calibrated.Calculated)
	}

	defaultDown := defaultProjection.Calculated - defaultProjection.Pessimistic
	defaultUp := defaultProjection.Optimistic - defaultProjection.Calculated
	calibratedDown := calibrated.Calculated - calibrated.Pessimistic
	calibratedUp := calibrated.Optimistic - calibrated.Calculated

	if math.Abs(calibratedDown-defaultDown) > 1e-9 {
		t.Errorf("pessimistic offset = %v, want preserved %v", calibratedDown, defaultDown)
	}
	if math.Abs(calibratedUp-defaultUp) > 1e-9 {
		t.Errorf("optimistic offset = %v, want preserved %v", calibratedUp, defaultUp)
	}
}

func TestEstimator_CalibrationForOtherAreaIgnored(t *testing.T) {
	provider := newFixtureProvider(reference2024Mathematics())
	ctx := context.Background()

	calibration := &models.CalibrationParameters{
		Area:       models.AreaLanguages,
		Slope:      10.0,
		Intercept:  300.0,
		SampleSize: 2,
	}

	withFit, err := NewEstimator(provider, calibration).Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	without, err := NewEstimator(provider, nil).Estimate(ctx, models.AreaMathematics, 35, 2024)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if withFit != without {
		t.Errorf("languages calibration changed a mathematics estimate: %+v vs %+v", withFit, without)
	}
}

func TestEstimator_ConfidenceInterval(t *testing.T) {
	stats := statsFixture(models.AreaMathematics, 2024, 500.0, 30.0, 300.0, 900.0)
	provider := newFixtureProvider(stats)
	estimator := NewEstimator(provider, nil)
	ctx := context.Background()

	projection, err := estimator.Estimate(ctx, models.AreaMathematics, 20, 2024)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	lower, upper, err := estimator.ConfidenceInterval(ctx, models.AreaMathematics, 20, 2024, 0.95)
	if err != nil {
		t.Fatalf("ConfidenceInterval() error = %v", err)
	}

	if lower >= upper {
		t.Fatalf("interval [%v, %v] is empty", lower, upper)
	}

	lowGap := projection.Calculated - lower
	highGap := upper - projection.Calculated
	if math.Abs(lowGap-highGap) > 1e-9 {
		t.Errorf("interval not symmetric: gaps %v vs %v", lowGap, highGap)
	}

	wider1, wider2, err := estimator.ConfidenceInterval(ctx, models.AreaMathematics, 20, 2024, 0.99)
	if err != nil {
		t.Fatalf("ConfidenceInterval() error = %v", err)
	}
	if !(wider1 < lower && wider2 > upper) {
		t.Errorf("0.99 interval [%v, %v] does not strictly widen 0.95 interval [%v, %v]",
			wider1, wider2, lower, upper)
	}
}

func TestEstimator_ConfidenceLevelOutOfRange(t *testing.T) {
	provider := newFixtureProvider(reference2024Mathematics())
	estimator := NewEstimator(provider, nil)

	for _, level := range []float64{0.0, 1.0, -0.5, 1.5} {
		_, _, err := estimator.ConfidenceInterval(context.Background(), models.AreaMathematics, 20, 2024, level)

		var outOfRange *models.OutOfRangeError
		if !errors.As(err, &outOfRange) {
			t.Errorf("level=%v: error = %v, want OutOfRangeError", level, err)
		}
	}
}
