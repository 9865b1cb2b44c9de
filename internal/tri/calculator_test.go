package tri

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"triscore-platform/internal/models"
)

func fullProvider2024() *fixtureProvider {
	return newFixtureProvider(
		reference2024Mathematics(),
		statsFixture(models.AreaLanguages, 2024, 520.0, 95.0, 300.0, 830.0),
		statsFixture(models.AreaNaturalSciences, 2024, 490.0, 110.0, 300.0, 900.0),
		statsFixture(models.AreaHumanSciences, 2024, 510.0, 100.0, 300.0, 875.0),
	)
}

func TestExamCalculator_CalculateScore(t *testing.T) {
	calculator := NewExamCalculator(fullProvider2024())

	result, err := calculator.CalculateScore(context.Background(), ExamInput{
		Mathematics:     35,
		Languages:       30,
		NaturalSciences: 28,
		HumanSciences:   32,
		EssayScore:      900.0,
		ReferenceYear:   2024,
	})
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}

	if len(result.PerArea) != 4 {
		t.Errorf("PerArea has %d entries, want 4", len(result.PerArea))
	}

	// Essay passes through unchanged.
	if result.EssayScore != 900.0 {
		t.Errorf("EssayScore = %v, want 900.0", result.EssayScore)
	}

	// Documented example: 35 correct in mathematics against the 2024
	// statistics.
	mathematics := result.PerArea[models.AreaMathematics]
	if math.Abs(mathematics.Calculated-705.3) > 0.5 {
		t.Errorf("mathematics Calculated = %v, want ~705.3", mathematics.Calculated)
	}

	var sum float64
	for _, area := range models.ObjectiveAreas() {
		sum += result.PerArea[area].Calculated
	}
	if math.Abs(result.ObjectiveAverage-sum/4) > 1e-12 {
		t.Errorf("ObjectiveAverage = %v, want %v", result.ObjectiveAverage, sum/4)
	}

	// Exact arithmetic identity: essay weighted equally to one area.
	if result.OverallAverage != (result.ObjectiveAverage*4+result.EssayScore)/5 {
		t.Errorf("OverallAverage = %v, want %v",
			result.OverallAverage, (result.ObjectiveAverage*4+result.EssayScore)/5)
	}

	if result.ReferenceYear != 2024 {
		t.Errorf("ReferenceYear = %v, want 2024", result.ReferenceYear)
	}
}

func TestExamCalculator_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input ExamInput
	}{
		{
			name: "mathematics above question count",
			input: ExamInput{
				Mathematics: 50, Languages: 30, NaturalSciences: 28, HumanSciences: 32,
				EssayScore: 800.0, ReferenceYear: 2024,
			},
		},
		{
			name: "negative languages count",
			input: ExamInput{
				Mathematics: 35, Languages: -1, NaturalSciences: 28, HumanSciences: 32,
				EssayScore: 800.0, ReferenceYear: 2024,
			},
		},
		{
			name: "negative essay score",
			input: ExamInput{
				Mathematics: 35, Languages: 30, NaturalSciences: 28, HumanSciences: 32,
				EssayScore: -1.0, ReferenceYear: 2024,
			},
		},
		{
			name: "essay score above scale",
			input: ExamInput{
				Mathematics: 35, Languages: 30, NaturalSciences: 28, HumanSciences: 32,
				EssayScore: 1000.5, ReferenceYear: 2024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := fullProvider2024()
			calculator := NewExamCalculator(provider)

			result, err := calculator.CalculateScore(context.Background(), tt.input)

			var invalid *models.InvalidInputError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidInputError", err)
			}
			if result != nil {
				t.Errorf("expected no partial result, got %+v", result)
			}
			// Validation must reject before any area is estimated.
			if loads := atomic.LoadInt64(&provider.loads); loads != 0 {
				t.Errorf("statistics loaded %d times before validation failure, want 0", loads)
			}
		})
	}
}

func TestExamCalculator_EssayBoundsAccepted(t *testing.T) {
	calculator := NewExamCalculator(fullProvider2024())
	ctx := context.Background()

	for _, essay := range []float64{0.0, 1000.0} {
		result, err := calculator.CalculateScore(ctx, ExamInput{
			Mathematics: 20, Languages: 20, NaturalSciences: 20, HumanSciences: 20,
			EssayScore: essay, ReferenceYear: 2024,
		})
		if err != nil {
			t.Fatalf("essay=%v: CalculateScore() error = %v", essay, err)
		}
		if result.EssayScore != essay {
			t.Errorf("EssayScore = %v, want %v", result.EssayScore, essay)
		}
	}
}

func TestExamCalculator_CalibrationsApplyPerArea(t *testing.T) {
	provider := newFixtureProvider(
		statsFixture(models.AreaMathematics, 2024, 500.0, 110.0, 100.0, 1000.0),
		statsFixture(models.AreaLanguages, 2024, 520.0, 95.0, 300.0, 830.0),
		statsFixture(models.AreaNaturalSciences, 2024, 490.0, 110.0, 300.0, 900.0),
		statsFixture(models.AreaHumanSciences, 2024, 510.0, 100.0, 300.0, 875.0),
	)
	calculator := NewExamCalculator(provider)

	calibrations := map[models.Area]*models.CalibrationParameters{
		models.AreaMathematics: {
			Area: models.AreaMathematics, Slope: 10.0, Intercept: 300.0, SampleSize: 2,
		},
	}

	base := ExamInput{
		Mathematics: 35, Languages: 30, NaturalSciences: 28, HumanSciences: 32,
		EssayScore: 700.0, ReferenceYear: 2024,
	}
	withFit := base
	withFit.Calibrations = calibrations

	defaultResult, err := calculator.CalculateScore(context.Background(), base)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	calibratedResult, err := calculator.CalculateScore(context.Background(), withFit)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}

	if math.Abs(calibratedResult.PerArea[models.AreaMathematics].Calculated-650.0) > 1e-9 {
		t.Errorf("calibrated mathematics = %v, want 650.0",
			calibratedResult.PerArea[models.AreaMathematics].Calculated)
	}
	if calibratedResult.PerArea[models.AreaLanguages] != defaultResult.PerArea[models.AreaLanguages] {
		t.Error("languages estimate changed without a languages calibration")
	}
}
