package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the TRI Score Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	areaSchema := map[string]interface{}{
		"type": "string",
		"enum": []string{"mathematics", "languages", "natural_sciences", "human_sciences"},
	}
	scenarioSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pessimistic": map[string]string{"type": "number"},
			"calculated":  map[string]string{"type": "number"},
			"optimistic":  map[string]string{"type": "number"},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "TRI Score Platform API",
			"description": "Exam score estimation platform: projects official exam scores from raw correct answer counts using historical aggregate statistics",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "TRI Score Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/estimate": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Estimate exam scores",
					"description": "Estimate per-area scenario scores and the overall average from raw correct answer counts. Personal history, when supplied, calibrates the areas it covers.",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"reference_year":   map[string]string{"type": "integer"},
										"mathematics":      map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
										"languages":        map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
										"natural_sciences": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
										"human_sciences":   map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
										"essay_score":      map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1000},
										"history": map[string]interface{}{
											"type": "array",
											"items": map[string]interface{}{
												"type": "object",
												"properties": map[string]interface{}{
													"year":            map[string]string{"type": "integer"},
													"area":            areaSchema,
													"correct_answers": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
													"official_score":  map[string]interface{}{"type": "number", "minimum": 0},
												},
											},
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Estimated exam result",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"reference_year": map[string]string{"type": "integer"},
											"per_area": map[string]interface{}{
												"type":                 "object",
												"additionalProperties": scenarioSchema,
											},
											"essay_score":       map[string]string{"type": "number"},
											"objective_average": map[string]string{"type": "number"},
											"overall_average":   map[string]string{"type": "number"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid input"},
						"404": map[string]interface{}{"description": "No statistics for the requested year"},
					},
				},
			},
			"/api/estimate/interval": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Confidence interval for one area",
					"description": "Returns the lower and upper score bounds for one knowledge area at the requested confidence level",
					"parameters": []map[string]interface{}{
						{
							"name":     "area",
							"in":       "query",
							"required": true,
							"schema":   areaSchema,
						},
						{
							"name":     "correct_answers",
							"in":       "query",
							"required": true,
							"schema":   map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 45},
						},
						{
							"name":        "year",
							"in":          "query",
							"description": "Reference exam year (defaults to the configured year)",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "confidence_level",
							"in":          "query",
							"description": "Confidence level in (0, 1), default 0.95",
							"required":    false,
							"schema":      map[string]interface{}{"type": "number", "default": 0.95},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Interval bounds",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"area":             areaSchema,
											"correct_answers":  map[string]string{"type": "integer"},
											"reference_year":   map[string]string{"type": "integer"},
											"confidence_level": map[string]string{"type": "number"},
											"lower":            map[string]string{"type": "number"},
											"upper":            map[string]string{"type": "number"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid input"},
						"404": map[string]interface{}{"description": "No statistics for the requested year"},
					},
				},
			},
			"/api/statistics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get aggregated exam statistics",
					"description": "Retrieve per-year, per-area score statistics with filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":        "year",
							"in":          "query",
							"description": "Filter by exam year",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "area",
							"in":          "query",
							"description": "Filter by knowledge area",
							"required":    false,
							"schema":      areaSchema,
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":             map[string]string{"type": "integer"},
														"year":           map[string]string{"type": "integer"},
														"area":           areaSchema,
														"mean_score":     map[string]string{"type": "number"},
														"std_deviation":  map[string]string{"type": "number"},
														"min_score":      map[string]string{"type": "number"},
														"max_score":      map[string]string{"type": "number"},
														"question_count": map[string]string{"type": "integer"},
														"sample_count":   map[string]string{"type": "integer"},
														"created_at":     map[string]string{"type": "string", "format": "date-time"},
														"updated_at":     map[string]string{"type": "string", "format": "date-time"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
