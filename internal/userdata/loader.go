// Package userdata loads a test-taker's personal history file: answer
// counts for the current exam plus official results from previous years.
package userdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"triscore-platform/internal/models"
)

// CurrentYear holds the answer counts for the exam being estimated
type CurrentYear struct {
	Year            int     `yaml:"year"`
	Mathematics     int     `yaml:"mathematics"`
	Languages       int     `yaml:"languages"`
	NaturalSciences int     `yaml:"natural_sciences"`
	HumanSciences   int     `yaml:"human_sciences"`
	EssayScore      float64 `yaml:"essay_score"`
}

// AreaResult is one area's outcome in a previous exam. OfficialScore is
// a pointer so an absent score can be told apart from zero.
type AreaResult struct {
	CorrectAnswers int      `yaml:"correct_answers"`
	OfficialScore  *float64 `yaml:"official_score"`
}

// PreviousYear holds one past exam's per-area results
type PreviousYear struct {
	Year            int        `yaml:"year"`
	Mathematics     AreaResult `yaml:"mathematics"`
	Languages       AreaResult `yaml:"languages"`
	NaturalSciences AreaResult `yaml:"natural_sciences"`
	HumanSciences   AreaResult `yaml:"human_sciences"`
	EssayScore      float64    `yaml:"essay_score"`
}

// Settings holds optional estimation preferences
type Settings struct {
	UseHistoricalData *bool    `yaml:"use_historical_data"`
	ConfidenceLevel   *float64 `yaml:"confidence_level"`
}

// UserData is the parsed history file
type UserData struct {
	CurrentYear   *CurrentYear   `yaml:"current_year"`
	PreviousYears []PreviousYear `yaml:"previous_years"`
	Settings      Settings       `yaml:"settings"`
}

// Load reads and parses a user history file
func Load(path string) (*UserData, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data file: %w", err)
	}

	var data UserData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse user data file: %w", err)
	}

	return &data, nil
}

// Validate checks the current-year block against the exam's domains
func (d *UserData) Validate() error {
	if d.CurrentYear == nil {
		return &models.InvalidInputError{Field: "current_year", Message: "missing current year data"}
	}

	counts := []struct {
		field string
		value int
	}{
		{"mathematics", d.CurrentYear.Mathematics},
		{"languages", d.CurrentYear.Languages},
		{"natural_sciences", d.CurrentYear.NaturalSciences},
		{"human_sciences", d.CurrentYear.HumanSciences},
	}
	for _, c := range counts {
		if c.value < 0 || c.value > models.QuestionsPerArea {
			return &models.InvalidInputError{
				Field:   c.field,
				Message: fmt.Sprintf("correct answer count must be between 0 and %d, got %d", models.QuestionsPerArea, c.value),
			}
		}
	}

	if d.CurrentYear.EssayScore < 0 || d.CurrentYear.EssayScore > models.EssayMaxScore {
		return &models.InvalidInputError{
			Field:   "essay_score",
			Message: fmt.Sprintf("essay score must be between 0 and %.0f, got %.1f", models.EssayMaxScore, d.CurrentYear.EssayScore),
		}
	}

	return nil
}

// HistoricalRecords flattens previous years into per-area records for
// calibration. Entries without an official score or without a positive
// correct count are skipped.
func (d *UserData) HistoricalRecords() []models.HistoricalRecord {
	records := make([]models.HistoricalRecord, 0, len(d.PreviousYears)*len(models.ObjectiveAreas()))

	for _, prev := range d.PreviousYears {
		results := map[models.Area]AreaResult{
			models.AreaMathematics:     prev.Mathematics,
			models.AreaLanguages:       prev.Languages,
			models.AreaNaturalSciences: prev.NaturalSciences,
			models.AreaHumanSciences:   prev.HumanSciences,
		}
		for _, area := range models.ObjectiveAreas() {
			result := results[area]
			if result.OfficialScore == nil || result.CorrectAnswers <= 0 {
				continue
			}
			records = append(records, models.HistoricalRecord{
				Year:           prev.Year,
				Area:           area,
				CorrectAnswers: result.CorrectAnswers,
				OfficialScore:  *result.OfficialScore,
			})
		}
	}

	return records
}

// HasHistory reports whether any previous year entries exist
func (d *UserData) HasHistory() bool {
	return len(d.PreviousYears) > 0
}

// UseHistory reports whether calibration should use past results.
// Defaults to true when unset.
func (d *UserData) UseHistory() bool {
	if d.Settings.UseHistoricalData == nil {
		return true
	}
	return *d.Settings.UseHistoricalData
}

// ConfidenceLevelOrDefault returns the configured confidence level,
// falling back to 0.95
func (d *UserData) ConfidenceLevelOrDefault() float64 {
	if d.Settings.ConfidenceLevel == nil {
		return 0.95
	}
	return *d.Settings.ConfidenceLevel
}
