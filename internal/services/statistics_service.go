package services

import (
	"context"
	"fmt"
	"time"

	"triscore-platform/internal/models"
	"triscore-platform/internal/repository"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// StatisticsService handles exam statistics aggregation
type StatisticsService struct {
	repo    repository.StatisticsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.StatisticsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CalculateAllStatistics aggregates statistics for every year with
// ingested samples, across all knowledge areas
func (s *StatisticsService) CalculateAllStatistics(ctx context.Context) error {
	startTime := time.Now()

	s.logger.Info(ctx, "[STATS_CALC_START] Starting statistics aggregation", logging.Fields{
		"stage": "INITIALIZATION",
	})

	years, err := s.repo.ListSampleYears(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sample years: %w", err)
	}

	totalStats := 0
	for _, year := range years {
		for _, area := range models.ObjectiveAreas() {
			stats, err := s.repo.AggregateYearArea(ctx, year, area)
			if err != nil {
				s.logger.Error(ctx, "[STATS_CALC_ERROR] Failed to aggregate statistics", logging.Fields{
					"year": year,
					"area": area,
				}, err)
				continue
			}

			// Only save when there are enough samples for a spread
			if stats.SampleCount < 2 {
				s.logger.Warn(ctx, "[STATS_CALC_SPARSE] Too few samples for area", logging.Fields{
					"year":         year,
					"area":         area,
					"sample_count": stats.SampleCount,
				})
				continue
			}

			if err := s.repo.UpsertStatistics(ctx, stats); err != nil {
				s.logger.Error(ctx, "[STATS_SAVE_ERROR] Failed to save statistics", logging.Fields{
					"year": year,
					"area": area,
				}, err)
				continue
			}
			totalStats++
		}

		s.logger.Info(ctx, "[STATS_YEAR_COMPLETE] Year statistics aggregated", logging.Fields{
			"year": year,
		})
	}

	duration := time.Since(startTime)

	s.logger.Info(ctx, "[STATS_CALC_COMPLETE] Statistics aggregation completed", logging.Fields{
		"total_years":      len(years),
		"total_statistics": totalStats,
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return nil
}

// GetStatistics retrieves aggregated statistics with filtering
func (s *StatisticsService) GetStatistics(ctx context.Context, filter repository.StatisticsFilter) ([]*models.AreaStatistics, int, error) {
	return s.repo.GetStatistics(ctx, filter)
}
