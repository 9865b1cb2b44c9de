package tri

import (
	"context"

	"triscore-platform/internal/models"
)

// ExamInput carries the raw inputs for one full exam calculation.
type ExamInput struct {
	Mathematics     int
	Languages       int
	NaturalSciences int
	HumanSciences   int
	EssayScore      float64
	ReferenceYear   int

	// Calibrations holds optional per-area fits. Missing areas use the
	// default model.
	Calibrations map[models.Area]*models.CalibrationParameters
}

// ExamCalculator fans one calculation out over the four objective areas
// and folds the results, with the essay passed through unchanged, into a
// single aggregate. Each area estimate is independent; no state is shared
// between calls.
type ExamCalculator struct {
	provider StatisticsProvider
}

// NewExamCalculator creates a calculator over a statistics provider.
func NewExamCalculator(provider StatisticsProvider) *ExamCalculator {
	return &ExamCalculator{provider: provider}
}

// CalculateScore validates every input before estimating anything, then
// estimates all four objective areas and aggregates. On any failure no
// partial result is returned.
func (c *ExamCalculator) CalculateScore(ctx context.Context, input ExamInput) (*models.ExamResult, error) {
	counts := map[models.Area]int{
		models.AreaMathematics:     input.Mathematics,
		models.AreaLanguages:       input.Languages,
		models.AreaNaturalSciences: input.NaturalSciences,
		models.AreaHumanSciences:   input.HumanSciences,
	}

	for _, area := range models.ObjectiveAreas() {
		if count := counts[area]; count < 0 || count > models.QuestionsPerArea {
			return nil, &models.InvalidInputError{
				Field:   string(area),
				Message: string(area) + ": correct answers must be between 0 and 45",
			}
		}
	}
	if input.EssayScore < 0 || input.EssayScore > models.EssayMaxScore {
		return nil, &models.InvalidInputError{
			Field:   "essay_score",
			Message: "essay score must be between 0 and 1000",
		}
	}

	results := make(map[models.Area]models.ScenarioScore, len(counts))
	var objectiveSum float64

	for _, area := range models.ObjectiveAreas() {
		estimator := NewEstimator(c.provider, input.Calibrations[area])
		projection, err := estimator.Estimate(ctx, area, counts[area], input.ReferenceYear)
		if err != nil {
			return nil, err
		}
		results[area] = projection
		objectiveSum += projection.Calculated
	}

	objectiveAverage := objectiveSum / 4
	return &models.ExamResult{
		ReferenceYear:    input.ReferenceYear,
		PerArea:          results,
		EssayScore:       input.EssayScore,
		ObjectiveAverage: objectiveAverage,
		OverallAverage:   (objectiveAverage*4 + input.EssayScore) / 5,
	}, nil
}
