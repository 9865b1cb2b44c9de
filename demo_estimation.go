package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"triscore-platform/internal/models"
	"triscore-platform/internal/statistics"
	"triscore-platform/internal/tri"
)

// sampleStatistics returns built-in reference statistics modeled on
// published exam reports, so the demo runs without a database.
func sampleStatistics(year int) []models.AreaStatistics {
	params := []struct {
		area models.Area
		mean float64
		std  float64
		min  float64
		max  float64
	}{
		{models.AreaMathematics, 520, 120, 300, 985},
		{models.AreaLanguages, 520, 95, 300, 830},
		{models.AreaNaturalSciences, 490, 110, 300, 900},
		{models.AreaHumanSciences, 510, 100, 300, 875},
	}

	now := time.Now().UTC()
	stats := make([]models.AreaStatistics, 0, len(params))
	for _, p := range params {
		stats = append(stats, models.AreaStatistics{
			Year:          year,
			Area:          p.area,
			MeanScore:     p.mean,
			StdDeviation:  p.std,
			MinScore:      p.min,
			MaxScore:      p.max,
			QuestionCount: models.QuestionsPerArea,
			SampleCount:   1000,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return stats
}

type sampleSource struct {
	year int
}

func (s sampleSource) LoadYear(ctx context.Context, year int) ([]models.AreaStatistics, error) {
	if year != s.year {
		return nil, nil
	}
	return sampleStatistics(year), nil
}

// Demonstrates score estimation without a database
func main() {
	const year = 2024

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("TRI SCORE PLATFORM - ESTIMATION DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	ctx := context.Background()
	store := statistics.NewStore(sampleSource{year: year})

	fmt.Printf("Reference year: %d (built-in sample statistics)\n\n", year)

	// Per-area projection sweep
	estimator := tri.NewEstimator(store, nil)
	for _, area := range models.ObjectiveAreas() {
		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("Area: %s\n", area)
		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("  %8s  %12s  %12s  %12s\n", "correct", "pessimistic", "calculated", "optimistic")

		for _, correct := range []int{0, 10, 20, 30, 40, 45} {
			scenario, err := estimator.Estimate(ctx, area, correct, year)
			if err != nil {
				fmt.Printf("  estimation failed for %d correct: %v\n", correct, err)
				os.Exit(1)
			}
			fmt.Printf("  %8d  %12.1f  %12.1f  %12.1f\n",
				correct, scenario.Pessimistic, scenario.Calculated, scenario.Optimistic)
		}
		fmt.Println()
	}

	// Full exam calculation
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("FULL EXAM CALCULATION")
	fmt.Println("════════════════════════════════════════════════════════════════")

	calculator := tri.NewExamCalculator(store)
	input := tri.ExamInput{
		Mathematics:     35,
		Languages:       38,
		NaturalSciences: 30,
		HumanSciences:   40,
		EssayScore:      900,
		ReferenceYear:   year,
	}

	result, err := calculator.CalculateScore(ctx, input)
	if err != nil {
		fmt.Printf("Calculation failed: %v\n", err)
		os.Exit(1)
	}

	for _, area := range models.ObjectiveAreas() {
		scenario := result.PerArea[area]
		fmt.Printf("%-18s  %.1f (%.1f - %.1f)\n",
			area, scenario.Calculated, scenario.Pessimistic, scenario.Optimistic)
	}
	fmt.Printf("%-18s  %.1f\n", "essay", result.EssayScore)
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Printf("Objective average:  %.1f\n", result.ObjectiveAverage)
	fmt.Printf("Overall average:    %.1f\n", result.OverallAverage)
	fmt.Println()

	// Personal calibration
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("PERSONAL CALIBRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")

	history := []models.HistoricalRecord{
		{Year: 2022, Area: models.AreaMathematics, CorrectAnswers: 30, OfficialScore: 650},
		{Year: 2023, Area: models.AreaMathematics, CorrectAnswers: 33, OfficialScore: 690},
	}

	calibration, err := tri.FitCalibration(models.AreaMathematics, history)
	if err != nil {
		fmt.Printf("Calibration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Fitted from %d past results: slope=%.2f intercept=%.2f\n",
		calibration.SampleSize, calibration.Slope, calibration.Intercept)

	calibrated := tri.NewEstimator(store, calibration)
	defaultScenario, _ := estimator.Estimate(ctx, models.AreaMathematics, 35, year)
	calibratedScenario, err := calibrated.Estimate(ctx, models.AreaMathematics, 35, year)
	if err != nil {
		fmt.Printf("Calibrated estimation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mathematics with 35 correct answers:\n")
	fmt.Printf("  default:    %.1f\n", defaultScenario.Calculated)
	fmt.Printf("  calibrated: %.1f\n", calibratedScenario.Calculated)
	fmt.Println()

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("With a database, this would:")
	fmt.Println("  • Aggregate statistics from ingested exam microdata")
	fmt.Println("  • Serve estimates via REST API endpoints")
	fmt.Println("  • Provide real-time metrics and monitoring")
	fmt.Println()
}
