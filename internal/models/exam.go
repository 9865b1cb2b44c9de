package models

import (
	"fmt"
	"time"
)

// QuestionsPerArea is the fixed number of objective questions in each
// knowledge area of the exam.
const QuestionsPerArea = 45

// EssayMaxScore is the upper bound of the essay score scale.
const EssayMaxScore = 1000.0

// Area identifies one of the four objective knowledge areas.
type Area string

const (
	AreaMathematics     Area = "mathematics"
	AreaLanguages       Area = "languages"
	AreaNaturalSciences Area = "natural_sciences"
	AreaHumanSciences   Area = "human_sciences"
)

// ObjectiveAreas returns the four objective areas in canonical order.
func ObjectiveAreas() []Area {
	return []Area{AreaMathematics, AreaLanguages, AreaNaturalSciences, AreaHumanSciences}
}

// ParseArea converts a string into an Area.
func ParseArea(s string) (Area, error) {
	switch Area(s) {
	case AreaMathematics, AreaLanguages, AreaNaturalSciences, AreaHumanSciences:
		return Area(s), nil
	}
	return "", &InvalidInputError{Field: "area", Message: fmt.Sprintf("unknown area %q", s)}
}

// IsValid reports whether the area is one of the four objective areas.
func (a Area) IsValid() bool {
	switch a {
	case AreaMathematics, AreaLanguages, AreaNaturalSciences, AreaHumanSciences:
		return true
	}
	return false
}

// AreaStatistics holds one year of aggregate score statistics for an area.
// Immutable once loaded; uniquely keyed by (year, area).
type AreaStatistics struct {
	ID            int64     `json:"id,omitempty" db:"id"`
	Year          int       `json:"year" db:"year"`
	Area          Area      `json:"area" db:"area"`
	MeanScore     float64   `json:"mean_score" db:"mean_score"`
	StdDeviation  float64   `json:"std_deviation" db:"std_deviation"`
	MinScore      float64   `json:"min_score" db:"min_score"`
	MaxScore      float64   `json:"max_score" db:"max_score"`
	QuestionCount int       `json:"question_count" db:"question_count"`
	SampleCount   int       `json:"sample_count,omitempty" db:"sample_count"`
	CreatedAt     time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Validate checks the statistical fields for internal consistency.
func (s *AreaStatistics) Validate() error {
	if !s.Area.IsValid() {
		return &InvalidInputError{Field: "area", Message: fmt.Sprintf("unknown area %q", s.Area)}
	}
	if s.StdDeviation <= 0 {
		return &InvalidInputError{Field: "std_deviation", Message: "standard deviation must be positive"}
	}
	if s.MinScore > s.MaxScore {
		return &InvalidInputError{Field: "min_score", Message: "min score exceeds max score"}
	}
	if s.QuestionCount <= 0 {
		return &InvalidInputError{Field: "question_count", Message: "question count must be positive"}
	}
	return nil
}

// ScoreSample is a single anonymized (correct count, official score) pair
// extracted from exam microdata. Samples feed the statistics aggregation.
type ScoreSample struct {
	ID             int64     `json:"id" db:"id"`
	Year           int       `json:"year" db:"year"`
	Area           Area      `json:"area" db:"area"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	OfficialScore  float64   `json:"official_score" db:"official_score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// HistoricalRecord is one of a test-taker's own past results: the raw
// correct count and the official score it received. Supplied externally,
// consumed only by calibration.
type HistoricalRecord struct {
	Year           int     `json:"year"`
	Area           Area    `json:"area"`
	CorrectAnswers int     `json:"correct_answers"`
	OfficialScore  float64 `json:"official_score"`
}

// Validate checks the record's fields against their domains.
func (r *HistoricalRecord) Validate() error {
	if !r.Area.IsValid() {
		return &InvalidInputError{Field: "area", Message: fmt.Sprintf("unknown area %q", r.Area)}
	}
	if r.CorrectAnswers < 0 || r.CorrectAnswers > QuestionsPerArea {
		return &OutOfRangeError{
			Field: "correct_answers",
			Value: float64(r.CorrectAnswers),
			Min:   0,
			Max:   QuestionsPerArea,
		}
	}
	return nil
}

// CalibrationParameters is the regression fit of a test-taker's official
// scores on their correct counts for one area. Derived, never hand-set;
// requires at least two historical records to exist.
type CalibrationParameters struct {
	Area       Area    `json:"area"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	SampleSize int     `json:"sample_size"`
}

// PredictScore evaluates the fitted line at a correct-answer count.
func (c *CalibrationParameters) PredictScore(correctAnswers int) float64 {
	return c.Slope*float64(correctAnswers) + c.Intercept
}

// ScenarioScore bounds an estimate with three projected outcomes.
// Invariant: Pessimistic <= Calculated <= Optimistic.
type ScenarioScore struct {
	Pessimistic float64 `json:"pessimistic"`
	Calculated  float64 `json:"calculated"`
	Optimistic  float64 `json:"optimistic"`
}

// ExamResult is the aggregate outcome of one full calculation.
// Created fresh per call; never mutated after construction.
type ExamResult struct {
	ReferenceYear    int                    `json:"reference_year"`
	PerArea          map[Area]ScenarioScore `json:"per_area"`
	EssayScore       float64                `json:"essay_score"`
	ObjectiveAverage float64                `json:"objective_average"`
	OverallAverage   float64                `json:"overall_average"`
}
