package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"triscore-platform/internal/models"
	"triscore-platform/pkg/database"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// StatisticsRepository provides data access for score samples and the
// per-year area statistics aggregated from them
type StatisticsRepository interface {
	// Sample operations
	CreateSamplesBatch(ctx context.Context, samples []*models.ScoreSample) error
	GetSamples(ctx context.Context, filter SampleFilter) ([]*models.ScoreSample, int, error)
	ListSampleYears(ctx context.Context) ([]int, error)

	// Statistics operations
	UpsertStatistics(ctx context.Context, stats *models.AreaStatistics) error
	GetStatistics(ctx context.Context, filter StatisticsFilter) ([]*models.AreaStatistics, int, error)
	LoadYear(ctx context.Context, year int) ([]models.AreaStatistics, error)
	AggregateYearArea(ctx context.Context, year int, area models.Area) (*models.AreaStatistics, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// SampleFilter defines filters for querying score samples
type SampleFilter struct {
	Year   *int
	Area   *models.Area
	Limit  int
	Offset int
}

// StatisticsFilter defines filters for querying area statistics
type StatisticsFilter struct {
	Year   *int
	Area   *models.Area
	Limit  int
	Offset int
}

// statisticsRepository implements StatisticsRepository
type statisticsRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) StatisticsRepository {
	return &statisticsRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateSamplesBatch inserts multiple score samples in a single transaction
func (r *statisticsRepository) CreateSamplesBatch(ctx context.Context, samples []*models.ScoreSample) error {
	if len(samples) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(samples)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(samples),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO score_samples (
			year, area, correct_answers, official_score, created_at
		)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, sample := range samples {
		_, err := stmt.ExecContext(ctx,
			sample.Year,
			sample.Area,
			sample.CorrectAnswers,
			sample.OfficialScore,
			sample.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(samples)))

	return nil
}

// GetSamples retrieves score samples with filtering and pagination
func (r *statisticsRepository) GetSamples(ctx context.Context, filter SampleFilter) ([]*models.ScoreSample, int, error) {
	query := `
		SELECT id, year, area, correct_answers, official_score, created_at
		FROM score_samples
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	if filter.Area != nil {
		query += fmt.Sprintf(" AND area = $%d", argNum)
		args = append(args, *filter.Area)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_samples", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count samples: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY year DESC, area, correct_answers"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var samples []*models.ScoreSample
	err = r.db.SelectContext(ctx, "get_samples", &samples, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get samples: %w", err)
	}

	return samples, totalCount, nil
}

// ListSampleYears returns the distinct years with ingested samples
func (r *statisticsRepository) ListSampleYears(ctx context.Context) ([]int, error) {
	query := `
		SELECT DISTINCT year
		FROM score_samples
		ORDER BY year
	`

	var years []int
	err := r.db.SelectContext(ctx, "list_sample_years", &years, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sample years: %w", err)
	}

	return years, nil
}

// UpsertStatistics creates or updates area statistics for one (year, area)
func (r *statisticsRepository) UpsertStatistics(ctx context.Context, stats *models.AreaStatistics) error {
	query := `
		INSERT INTO exam_statistics (
			year, area,
			mean_score, std_deviation, min_score, max_score,
			question_count, sample_count,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (year, area) DO UPDATE SET
			mean_score = EXCLUDED.mean_score,
			std_deviation = EXCLUDED.std_deviation,
			min_score = EXCLUDED.min_score,
			max_score = EXCLUDED.max_score,
			question_count = EXCLUDED.question_count,
			sample_count = EXCLUDED.sample_count,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		stats.Year,
		stats.Area,
		stats.MeanScore,
		stats.StdDeviation,
		stats.MinScore,
		stats.MaxScore,
		stats.QuestionCount,
		stats.SampleCount,
		stats.CreatedAt,
		stats.UpdatedAt,
	).Scan(&stats.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert statistics: %w", err)
	}

	return nil
}

// GetStatistics retrieves area statistics with filtering and pagination
func (r *statisticsRepository) GetStatistics(ctx context.Context, filter StatisticsFilter) ([]*models.AreaStatistics, int, error) {
	query := `
		SELECT id, year, area,
		       mean_score, std_deviation, min_score, max_score,
		       question_count, sample_count,
		       created_at, updated_at
		FROM exam_statistics
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	if filter.Area != nil {
		query += fmt.Sprintf(" AND area = $%d", argNum)
		args = append(args, *filter.Area)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_statistics", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count statistics: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY year DESC, area"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var statistics []*models.AreaStatistics
	err = r.db.SelectContext(ctx, "get_statistics", &statistics, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get statistics: %w", err)
	}

	return statistics, totalCount, nil
}

// LoadYear retrieves the statistics snapshot for one reference year.
// Satisfies statistics.Source: an empty result means the year is absent.
func (r *statisticsRepository) LoadYear(ctx context.Context, year int) ([]models.AreaStatistics, error) {
	query := `
		SELECT id, year, area,
		       mean_score, std_deviation, min_score, max_score,
		       question_count, sample_count,
		       created_at, updated_at
		FROM exam_statistics
		WHERE year = $1
		ORDER BY area
	`

	var statistics []models.AreaStatistics
	err := r.db.SelectContext(ctx, "load_year", &statistics, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load year %d: %w", year, err)
	}

	return statistics, nil
}

// AggregateYearArea calculates area statistics from the ingested samples
// for one (year, area) pair
func (r *statisticsRepository) AggregateYearArea(ctx context.Context, year int, area models.Area) (*models.AreaStatistics, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.StatsCalculationDuration.Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_AGGREGATE] Statistics aggregated", logging.Fields{
			"year":        year,
			"area":        area,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	query := `
		SELECT
			COUNT(*) as sample_count,
			COALESCE(AVG(official_score), 0) as mean_score,
			COALESCE(STDDEV_SAMP(official_score), 0) as std_deviation,
			COALESCE(MIN(official_score), 0) as min_score,
			COALESCE(MAX(official_score), 0) as max_score
		FROM score_samples
		WHERE year = $1
		  AND area = $2
	`

	var result struct {
		SampleCount  int     `db:"sample_count"`
		MeanScore    float64 `db:"mean_score"`
		StdDeviation float64 `db:"std_deviation"`
		MinScore     float64 `db:"min_score"`
		MaxScore     float64 `db:"max_score"`
	}

	err := r.db.GetContext(ctx, "aggregate_statistics", &result, query, year, area)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
	}

	now := time.Now().UTC()
	stats := &models.AreaStatistics{
		Year:          year,
		Area:          area,
		MeanScore:     result.MeanScore,
		StdDeviation:  result.StdDeviation,
		MinScore:      result.MinScore,
		MaxScore:      result.MaxScore,
		QuestionCount: models.QuestionsPerArea,
		SampleCount:   result.SampleCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return stats, nil
}

// HealthCheck performs a repository health check
func (r *statisticsRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// IsNoRows reports whether an error is the sentinel empty-result error
func IsNoRows(err error) bool {
	return err == sql.ErrNoRows
}
