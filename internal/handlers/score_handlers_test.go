package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"triscore-platform/internal/models"
	"triscore-platform/internal/repository"
	"triscore-platform/internal/services"
	"triscore-platform/internal/statistics"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// The prometheus default registry rejects duplicate registration, so
// the collector is shared across all tests in this package.
var testMetrics = metrics.NewCollector("triscore_test")

// stubSource serves a fixed 2024 snapshot to the statistics store
type stubSource struct{}

func (stubSource) LoadYear(ctx context.Context, year int) ([]models.AreaStatistics, error) {
	if year != 2024 {
		return nil, nil
	}
	now := time.Now().UTC()
	stats := make([]models.AreaStatistics, 0, 4)
	for _, area := range models.ObjectiveAreas() {
		stats = append(stats, models.AreaStatistics{
			Year:          2024,
			Area:          area,
			MeanScore:     600.0,
			StdDeviation:  80.0,
			MinScore:      300.0,
			MaxScore:      950.0,
			QuestionCount: models.QuestionsPerArea,
			SampleCount:   1000,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return stats, nil
}

// stubRepo serves canned statistics to the statistics service
type stubRepo struct {
	repository.StatisticsRepository
}

func (stubRepo) GetStatistics(ctx context.Context, filter repository.StatisticsFilter) ([]*models.AreaStatistics, int, error) {
	stats, _ := stubSource{}.LoadYear(ctx, 2024)
	result := make([]*models.AreaStatistics, 0, len(stats))
	for i := range stats {
		if filter.Area != nil && stats[i].Area != *filter.Area {
			continue
		}
		result = append(result, &stats[i])
	}
	return result, len(result), nil
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	logger := logging.NewStructuredLogger("triscore-test", "test", logging.ErrorLevel)
	store := statistics.NewStore(stubSource{})
	estimationService := services.NewEstimationService(store, logger, testMetrics)
	statsService := services.NewStatisticsService(stubRepo{}, logger, testMetrics)

	handler := NewScoreHandler(estimationService, statsService, 2024, logger, testMetrics)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestEstimate_Success(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(EstimateRequest{
		ReferenceYear:   2024,
		Mathematics:     30,
		Languages:       32,
		NaturalSciences: 28,
		HumanSciences:   35,
		EssayScore:      800,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.ExamResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result.ReferenceYear != 2024 {
		t.Errorf("expected reference year 2024, got %d", result.ReferenceYear)
	}
	if len(result.PerArea) != 4 {
		t.Errorf("expected 4 area projections, got %d", len(result.PerArea))
	}
	if result.EssayScore != 800 {
		t.Errorf("expected essay score 800, got %.1f", result.EssayScore)
	}
	for area, scenario := range result.PerArea {
		if scenario.Pessimistic > scenario.Calculated || scenario.Calculated > scenario.Optimistic {
			t.Errorf("area %s: scenarios out of order: %+v", area, scenario)
		}
	}
}

func TestEstimate_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body EstimateRequest
		code int
	}{
		{
			name: "count above maximum",
			body: EstimateRequest{ReferenceYear: 2024, Mathematics: 46},
			code: http.StatusBadRequest,
		},
		{
			name: "negative essay score",
			body: EstimateRequest{ReferenceYear: 2024, EssayScore: -1},
			code: http.StatusBadRequest,
		},
		{
			name: "unavailable year",
			body: EstimateRequest{ReferenceYear: 1998, Mathematics: 30},
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Code != tt.code {
				t.Errorf("expected error code %d, got %d", tt.code, errResp.Code)
			}
		})
	}
}

func TestEstimate_DefaultYear(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(EstimateRequest{Mathematics: 30, Languages: 30, NaturalSciences: 30, HumanSciences: 30})
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.ExamResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.ReferenceYear != 2024 {
		t.Errorf("expected default reference year 2024, got %d", result.ReferenceYear)
	}
}

func TestEstimateInterval(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/estimate/interval?area=mathematics&correct_answers=30&confidence_level=0.95", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var interval IntervalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &interval); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if interval.Lower >= interval.Upper {
		t.Errorf("expected lower < upper, got [%.2f, %.2f]", interval.Lower, interval.Upper)
	}
	if interval.Area != models.AreaMathematics {
		t.Errorf("expected mathematics, got %s", interval.Area)
	}
}

func TestEstimateInterval_BadArea(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/estimate/interval?area=astrology&correct_answers=30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetStatistics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/statistics?year=2024", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Total != 4 {
		t.Errorf("expected 4 statistics rows, got %d", response.Total)
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var status map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("expected healthy status, got %q", status["status"])
	}
}
