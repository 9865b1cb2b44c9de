package services

import (
	"context"
	"time"

	"triscore-platform/internal/models"
	"triscore-platform/internal/statistics"
	"triscore-platform/internal/tri"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// EstimationService handles score estimation requests
type EstimationService struct {
	store   *statistics.Store
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewEstimationService creates a new estimation service
func NewEstimationService(store *statistics.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *EstimationService {
	return &EstimationService{
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// EstimateExam calculates the full exam result for the given answer counts.
// When historical records are supplied, per-area calibrations are fitted
// first and applied to the areas they cover.
func (s *EstimationService) EstimateExam(ctx context.Context, input tri.ExamInput, history []models.HistoricalRecord) (*models.ExamResult, error) {
	startTime := time.Now()

	if len(history) > 0 {
		calibrations, warn := tri.FitAllCalibrations(history)
		if warn != nil {
			s.logger.Warn(ctx, "[CALIBRATION_SKIP] Calibration skipped for an area", logging.Fields{
				"reason": warn.Error(),
			})
			s.metrics.CalibrationDegenerateTotal.Inc()
		}
		s.metrics.CalibrationFitsTotal.Add(float64(len(calibrations)))
		input.Calibrations = calibrations
	}

	calculator := tri.NewExamCalculator(s.store)
	result, err := calculator.CalculateScore(ctx, input)
	if err != nil {
		s.logger.Error(ctx, "[ESTIMATE_ERROR] Exam estimation failed", logging.Fields{
			"reference_year": input.ReferenceYear,
		}, err)
		return nil, err
	}

	duration := time.Since(startTime)
	s.metrics.EstimationDuration.Observe(duration.Seconds())
	s.metrics.StatsYearsCached.Set(float64(len(s.store.CachedYears())))

	for area := range result.PerArea {
		_, calibrated := input.Calibrations[area]
		s.metrics.RecordEstimation(string(area), calibrated)
	}

	s.logger.Info(ctx, "[ESTIMATE_SUCCESS] Exam estimated", logging.Fields{
		"reference_year":    result.ReferenceYear,
		"overall_average":   result.OverallAverage,
		"objective_average": result.ObjectiveAverage,
		"calibrated_areas":  len(input.Calibrations),
		"duration_ms":       duration.Milliseconds(),
	})

	return result, nil
}

// ConfidenceInterval returns the lower and upper score bounds for one area
// at the requested confidence level
func (s *EstimationService) ConfidenceInterval(ctx context.Context, area models.Area, correctAnswers, referenceYear int, confidenceLevel float64, history []models.HistoricalRecord) (float64, float64, error) {
	var calibration *models.CalibrationParameters
	if len(history) > 0 {
		fitted, err := tri.FitCalibration(area, history)
		if err != nil {
			s.logger.Warn(ctx, "[CALIBRATION_SKIP] Calibration skipped for interval", logging.Fields{
				"area":   area,
				"reason": err.Error(),
			})
			s.metrics.CalibrationDegenerateTotal.Inc()
		} else if fitted != nil {
			calibration = fitted
			s.metrics.CalibrationFitsTotal.Inc()
		}
	}

	estimator := tri.NewEstimator(s.store, calibration)
	lower, upper, err := estimator.ConfidenceInterval(ctx, area, correctAnswers, referenceYear, confidenceLevel)
	if err != nil {
		return 0, 0, err
	}

	s.metrics.RecordEstimation(string(area), calibration != nil)

	return lower, upper, nil
}

// AvailableYears returns the reference years currently cached in memory
func (s *EstimationService) AvailableYears() []int {
	return s.store.CachedYears()
}
