package userdata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"triscore-platform/internal/models"
)

func writeUserData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_data.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

const fullFixture = `
current_year:
  year: 2024
  mathematics: 35
  languages: 38
  natural_sciences: 30
  human_sciences: 40
  essay_score: 900

previous_years:
  - year: 2022
    mathematics:
      correct_answers: 30
      official_score: 650.5
    languages:
      correct_answers: 33
      official_score: 610.0
    essay_score: 820
  - year: 2023
    mathematics:
      correct_answers: 33
      official_score: 680.0
    natural_sciences:
      correct_answers: 28
      official_score: 590.0
    essay_score: 860

settings:
  use_historical_data: true
  confidence_level: 0.90
`

func TestLoad_FullFile(t *testing.T) {
	path := writeUserData(t, fullFixture)

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if data.CurrentYear == nil {
		t.Fatal("expected current year data")
	}
	if data.CurrentYear.Year != 2024 {
		t.Errorf("expected year 2024, got %d", data.CurrentYear.Year)
	}
	if data.CurrentYear.Mathematics != 35 {
		t.Errorf("expected 35 mathematics answers, got %d", data.CurrentYear.Mathematics)
	}
	if data.CurrentYear.EssayScore != 900 {
		t.Errorf("expected essay score 900, got %.1f", data.CurrentYear.EssayScore)
	}

	if err := data.Validate(); err != nil {
		t.Errorf("expected valid current year, got %v", err)
	}

	if !data.HasHistory() {
		t.Error("expected history to be present")
	}
	if !data.UseHistory() {
		t.Error("expected history usage enabled")
	}
	if level := data.ConfidenceLevelOrDefault(); level != 0.90 {
		t.Errorf("expected confidence level 0.90, got %.2f", level)
	}
}

func TestLoad_HistoricalRecords(t *testing.T) {
	path := writeUserData(t, fullFixture)

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	records := data.HistoricalRecords()

	// 2022 contributes mathematics and languages, 2023 contributes
	// mathematics and natural sciences. Areas without a score are skipped.
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	byArea := make(map[models.Area]int)
	for _, record := range records {
		byArea[record.Area]++
		if err := record.Validate(); err != nil {
			t.Errorf("record %+v invalid: %v", record, err)
		}
	}

	if byArea[models.AreaMathematics] != 2 {
		t.Errorf("expected 2 mathematics records, got %d", byArea[models.AreaMathematics])
	}
	if byArea[models.AreaLanguages] != 1 {
		t.Errorf("expected 1 languages record, got %d", byArea[models.AreaLanguages])
	}
	if byArea[models.AreaHumanSciences] != 0 {
		t.Errorf("expected no human sciences records, got %d", byArea[models.AreaHumanSciences])
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeUserData(t, `
current_year:
  year: 2024
  mathematics: 20
  languages: 20
  natural_sciences: 20
  human_sciences: 20
  essay_score: 500
`)

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if data.HasHistory() {
		t.Error("expected no history")
	}
	if !data.UseHistory() {
		t.Error("expected history usage to default to true")
	}
	if level := data.ConfidenceLevelOrDefault(); level != 0.95 {
		t.Errorf("expected default confidence level 0.95, got %.2f", level)
	}
	if records := data.HistoricalRecords(); len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "missing current year",
			content: "previous_years: []\n",
			field:   "current_year",
		},
		{
			name: "count above maximum",
			content: `
current_year:
  year: 2024
  mathematics: 46
  languages: 20
  natural_sciences: 20
  human_sciences: 20
  essay_score: 500
`,
			field: "mathematics",
		},
		{
			name: "negative count",
			content: `
current_year:
  year: 2024
  mathematics: 20
  languages: -1
  natural_sciences: 20
  human_sciences: 20
  essay_score: 500
`,
			field: "languages",
		},
		{
			name: "essay score above maximum",
			content: `
current_year:
  year: 2024
  mathematics: 20
  languages: 20
  natural_sciences: 20
  human_sciences: 20
  essay_score: 1000.5
`,
			field: "essay_score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeUserData(t, tt.content)

			data, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			err = data.Validate()
			var invalidErr *models.InvalidInputError
			if !errors.As(err, &invalidErr) {
				t.Fatalf("expected InvalidInputError, got %v", err)
			}
			if invalidErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, invalidErr.Field)
			}
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeUserData(t, "current_year: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
