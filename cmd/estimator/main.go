package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"triscore-platform/internal/config"
	"triscore-platform/internal/models"
	"triscore-platform/internal/repository"
	"triscore-platform/internal/services"
	"triscore-platform/internal/statistics"
	"triscore-platform/internal/tri"
	"triscore-platform/internal/userdata"
	"triscore-platform/pkg/database"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	userDataPath := flag.String("user-data", "", "Path to a YAML user history file (overrides per-area flags)")
	year := flag.Int("year", 0, "Reference exam year (default from configuration)")
	mathematics := flag.Int("mathematics", 0, "Correct answers in mathematics")
	languages := flag.Int("languages", 0, "Correct answers in languages")
	naturalSciences := flag.Int("natural-sciences", 0, "Correct answers in natural sciences")
	humanSciences := flag.Int("human-sciences", 0, "Correct answers in human sciences")
	essay := flag.Float64("essay", 0, "Essay score (0-1000)")
	confidenceLevel := flag.Float64("confidence-level", 0, "Also print per-area confidence intervals at this level")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.WarnLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("triscore-estimator", "1.0.0", logLevel)
	ctx := context.Background()

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("triscore_estimator")

	// Build the exam input from the history file or flags
	input := tri.ExamInput{
		Mathematics:     *mathematics,
		Languages:       *languages,
		NaturalSciences: *naturalSciences,
		HumanSciences:   *humanSciences,
		EssayScore:      *essay,
		ReferenceYear:   *year,
	}

	var history []models.HistoricalRecord
	level := *confidenceLevel

	if *userDataPath != "" {
		data, err := userdata.Load(*userDataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load user data: %v\n", err)
			os.Exit(1)
		}
		if err := data.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid user data: %v\n", err)
			os.Exit(1)
		}

		input.Mathematics = data.CurrentYear.Mathematics
		input.Languages = data.CurrentYear.Languages
		input.NaturalSciences = data.CurrentYear.NaturalSciences
		input.HumanSciences = data.CurrentYear.HumanSciences
		input.EssayScore = data.CurrentYear.EssayScore
		if input.ReferenceYear == 0 {
			input.ReferenceYear = data.CurrentYear.Year
		}
		if data.UseHistory() {
			history = data.HistoricalRecords()
		}
		if level == 0 {
			level = data.ConfidenceLevelOrDefault()
		}
	}

	if input.ReferenceYear == 0 {
		input.ReferenceYear = cfg.Estimation.DefaultReferenceYear
	}

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Wire the estimation service on top of the cached statistics store
	statsRepo := repository.NewStatisticsRepository(db, logger, metricsCollector)
	statsStore := statistics.NewStore(statsRepo)
	estimationService := services.NewEstimationService(statsStore, logger, metricsCollector)

	result, err := estimationService.EstimateExam(ctx, input, history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Estimation failed: %v\n", err)
		os.Exit(1)
	}

	output := struct {
		*models.ExamResult
		Intervals map[models.Area][2]float64 `json:"confidence_intervals,omitempty"`
	}{ExamResult: result}

	if level > 0 {
		counts := map[models.Area]int{
			models.AreaMathematics:     input.Mathematics,
			models.AreaLanguages:       input.Languages,
			models.AreaNaturalSciences: input.NaturalSciences,
			models.AreaHumanSciences:   input.HumanSciences,
		}
		output.Intervals = make(map[models.Area][2]float64, len(counts))
		for area, correct := range counts {
			lower, upper, err := estimationService.ConfidenceInterval(ctx, area, correct, input.ReferenceYear, level, history)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Interval for %s failed: %v\n", area, err)
				os.Exit(1)
			}
			output.Intervals[area] = [2]float64{lower, upper}
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
}
