package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"triscore-platform/internal/models"
	"triscore-platform/internal/repository"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// IngestionService handles exam microdata ingestion
type IngestionService struct {
	repo    repository.StatisticsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	YearsIngested     []int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.StatisticsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// microdataFilePattern matches microdata files named microdata_<year>.csv
var microdataFilePattern = regexp.MustCompile(`^microdata_(\d{4})\.csv$`)

// IngestDirectory ingests all microdata files from a directory
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting microdata ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		Errors:        make([]string, 0),
		YearsIngested: make([]int, 0),
	}

	// Read directory
	files, err := filepath.Glob(filepath.Join(dataDir, "microdata_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no microdata files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	s.logger.Info(ctx, "[INGEST_FILES] Found microdata files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	// Process each file
	for _, filePath := range files {
		fileResult, year, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords
		result.YearsIngested = append(result.YearsIngested, year)

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          filePath,
			"year":               year,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Microdata ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"years":              result.YearsIngested,
		"duration_seconds":   result.Duration.Seconds(),
		"records_per_second": float64(result.SuccessfulRecords) / result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// ingestFile ingests a single microdata file. The exam year comes from
// the filename.
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, int, error) {
	fileName := filepath.Base(filePath)
	match := microdataFilePattern.FindStringSubmatch(fileName)
	if match == nil {
		return nil, 0, fmt.Errorf("unrecognized microdata filename: %s", fileName)
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, 0, fmt.Errorf("invalid year in filename: %w", err)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.ScoreSample, 0, batchSize)

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Skip header line if present
		if lineNum == 1 && strings.HasPrefix(strings.ToLower(line), "area;") {
			continue
		}

		result.TotalRecords++

		sample, err := s.parseLine(line, year)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		batch = append(batch, sample)

		// Process batch when full
		if len(batch) >= batchSize {
			if err := s.repo.CreateSamplesBatch(ctx, batch); err != nil {
				return nil, 0, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	// Process remaining records
	if len(batch) > 0 {
		if err := s.repo.CreateSamplesBatch(ctx, batch); err != nil {
			return nil, 0, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading file: %w", err)
	}

	return result, year, nil
}

// parseLine parses a single microdata line
// Format: AREA;CORRECT_ANSWERS;OFFICIAL_SCORE
func (s *IngestionService) parseLine(line string, year int) (*models.ScoreSample, error) {
	parts := strings.Split(line, ";")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid line format: expected 3 fields, got %d", len(parts))
	}

	area, err := models.ParseArea(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid area: %w", err)
	}

	correctAnswers, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid correct answer count: %w", err)
	}
	if correctAnswers < 0 || correctAnswers > models.QuestionsPerArea {
		return nil, fmt.Errorf("correct answer count %d outside [0, %d]", correctAnswers, models.QuestionsPerArea)
	}

	officialScore, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid official score: %w", err)
	}
	if officialScore < 0 {
		return nil, fmt.Errorf("official score %.2f is negative", officialScore)
	}

	return &models.ScoreSample{
		Year:           year,
		Area:           area,
		CorrectAnswers: correctAnswers,
		OfficialScore:  officialScore,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
