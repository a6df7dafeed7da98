// Package handlers provides API Gateway handlers for the scoring engine.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"scoring-engine/internal/utils"
)

// HistoryChecker reports the state of the history backend.
type HistoryChecker interface {
	HealthCheck(ctx context.Context) (string, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	history HistoryChecker
	version string
	stage   string
}

// NewHealthHandler creates a new health handler. history may be nil.
func NewHealthHandler(history HistoryChecker, version, stage string) *HealthHandler {
	return &HealthHandler{history: history, version: version, stage: stage}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Stage     string `json:"stage"`
	History   string `json:"history,omitempty"`
}

// Check builds the health report.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   utils.ServiceName,
		Version:   h.version,
		Stage:     h.stage,
	}

	if h.history == nil {
		response.History = "not configured"
		return response
	}

	state, err := h.history.HealthCheck(ctx)
	response.History = state
	if err != nil {
		response.Status = "degraded"
		utils.GetLogger().Warn("History backend unhealthy", utils.Error(err))
	}
	return response
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("GET,OPTIONS")

	response := h.Check(ctx)

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return jsonResponse(headers, statusCode, response)
}
