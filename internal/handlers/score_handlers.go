package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"triscore-platform/internal/models"
	"triscore-platform/internal/repository"
	"triscore-platform/internal/services"
	"triscore-platform/internal/tri"
	"triscore-platform/pkg/logging"
	"triscore-platform/pkg/metrics"
)

// ScoreHandler handles score estimation API endpoints
type ScoreHandler struct {
	estimationService *services.EstimationService
	statsService      *services.StatisticsService
	defaultYear       int
	logger            *logging.StructuredLogger
	metrics           *metrics.Collector
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(
	estimationService *services.EstimationService,
	statsService *services.StatisticsService,
	defaultYear int,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ScoreHandler {
	return &ScoreHandler{
		estimationService: estimationService,
		statsService:      statsService,
		defaultYear:       defaultYear,
		logger:            logger,
		metrics:           metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// EstimateRequest is the body of POST /api/estimate
type EstimateRequest struct {
	ReferenceYear   int                       `json:"reference_year"`
	Mathematics     int                       `json:"mathematics"`
	Languages       int                       `json:"languages"`
	NaturalSciences int                       `json:"natural_sciences"`
	HumanSciences   int                       `json:"human_sciences"`
	EssayScore      float64                   `json:"essay_score"`
	History         []models.HistoricalRecord `json:"history,omitempty"`
}

// IntervalResponse is the body returned by GET /api/estimate/interval
type IntervalResponse struct {
	Area            models.Area `json:"area"`
	CorrectAnswers  int         `json:"correct_answers"`
	ReferenceYear   int         `json:"reference_year"`
	ConfidenceLevel float64     `json:"confidence_level"`
	Lower           float64     `json:"lower"`
	Upper           float64     `json:"upper"`
}

// Estimate handles POST /api/estimate
func (h *ScoreHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/estimate").Observe(duration.Seconds())
	}()

	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ReferenceYear == 0 {
		req.ReferenceYear = h.defaultYear
	}

	input := tri.ExamInput{
		Mathematics:     req.Mathematics,
		Languages:       req.Languages,
		NaturalSciences: req.NaturalSciences,
		HumanSciences:   req.HumanSciences,
		EssayScore:      req.EssayScore,
		ReferenceYear:   req.ReferenceYear,
	}

	result, err := h.estimationService.EstimateExam(ctx, input, req.History)
	if err != nil {
		h.handleEstimationError(w, r, "/api/estimate", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/estimate", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// EstimateInterval handles GET /api/estimate/interval
func (h *ScoreHandler) EstimateInterval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/estimate/interval").Observe(duration.Seconds())
	}()

	area, err := models.ParseArea(r.URL.Query().Get("area"))
	if err != nil {
		h.sendError(w, r, "invalid area, expected one of mathematics, languages, natural_sciences, human_sciences", http.StatusBadRequest)
		return
	}

	correctAnswers, err := strconv.Atoi(r.URL.Query().Get("correct_answers"))
	if err != nil {
		h.sendError(w, r, "invalid correct_answers, expected integer", http.StatusBadRequest)
		return
	}

	year := h.defaultYear
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err = strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
	}

	level := 0.95
	if levelStr := r.URL.Query().Get("confidence_level"); levelStr != "" {
		level, err = strconv.ParseFloat(levelStr, 64)
		if err != nil {
			h.sendError(w, r, "invalid confidence_level, expected number", http.StatusBadRequest)
			return
		}
	}

	lower, upper, err := h.estimationService.ConfidenceInterval(ctx, area, correctAnswers, year, level, nil)
	if err != nil {
		h.handleEstimationError(w, r, "/api/estimate/interval", err)
		return
	}

	response := IntervalResponse{
		Area:            area,
		CorrectAnswers:  correctAnswers,
		ReferenceYear:   year,
		ConfidenceLevel: level,
		Lower:           lower,
		Upper:           upper,
	}

	h.metrics.RecordAPIRequest("/api/estimate/interval", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStatistics handles GET /api/statistics
func (h *ScoreHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/statistics").Observe(duration.Seconds())
	}()

	// Parse query parameters
	yearStr := r.URL.Query().Get("year")
	areaStr := r.URL.Query().Get("area")
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	// Default pagination
	page := 1
	limit := 100

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := (page - 1) * limit

	// Build filter
	filter := repository.StatisticsFilter{
		Limit:  limit,
		Offset: offset,
	}

	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	if areaStr != "" {
		area, err := models.ParseArea(areaStr)
		if err != nil {
			h.sendError(w, r, "invalid area", http.StatusBadRequest)
			return
		}
		filter.Area = &area
	}

	// Get statistics
	statistics, total, err := h.statsService.GetStatistics(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATISTICS_ERROR] Failed to get statistics", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/statistics")
		h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       statistics,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/statistics", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ScoreHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// handleEstimationError maps domain error kinds to HTTP statuses
func (h *ScoreHandler) handleEstimationError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	var invalidErr *models.InvalidInputError
	var rangeErr *models.OutOfRangeError
	var unavailableErr *models.DataUnavailableError

	switch {
	case errors.As(err, &invalidErr), errors.As(err, &rangeErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
	case errors.As(err, &unavailableErr):
		h.metrics.RecordAPIError("data_unavailable", endpoint)
		h.sendError(w, r, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(ctx, "[API_ESTIMATE_ERROR] Estimation failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "estimation failed", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *ScoreHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ScoreHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all score API routes
func (h *ScoreHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/estimate", h.Estimate).Methods("POST")
	router.HandleFunc("/api/estimate/interval", h.EstimateInterval).Methods("GET")
	router.HandleFunc("/api/statistics", h.GetStatistics).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
