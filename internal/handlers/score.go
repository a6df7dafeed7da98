// Package handlers provides API Gateway handlers for the scoring engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"scoring-engine/internal/models"
	"scoring-engine/internal/services/assessment"
	"scoring-engine/internal/utils"
)

// ScoreHandler scores loan applications posted by the eligibility forms.
type ScoreHandler struct {
	svc *assessment.Service
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(svc *assessment.Service) *ScoreHandler {
	return &ScoreHandler{svc: svc}
}

// Handle processes POST /loan/score?preset=<name>.
func (h *ScoreHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("POST,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return preflight(headers), nil
	}
	if request.HTTPMethod != http.MethodPost {
		return errorResponse(headers, http.StatusMethodNotAllowed, "Only POST is supported")
	}

	var form utils.LoanForm
	if err := json.Unmarshal([]byte(request.Body), &form); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid request body")
	}

	app, err := utils.ParseLoanForm(form)
	if err != nil {
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	record, err := h.svc.ScoreLoan(ctx, app, request.QueryStringParameters["preset"])
	if err != nil {
		return serviceError(headers, err)
	}

	return jsonResponse(headers, http.StatusOK, record)
}

// ClassifyHandler classifies e-mails posted by the spam detector form.
type ClassifyHandler struct {
	svc *assessment.Service
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(svc *assessment.Service) *ClassifyHandler {
	return &ClassifyHandler{svc: svc}
}

// Handle processes POST /email/classify.
func (h *ClassifyHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("POST,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return preflight(headers), nil
	}
	if request.HTTPMethod != http.MethodPost {
		return errorResponse(headers, http.StatusMethodNotAllowed, "Only POST is supported")
	}

	var in models.EmailInput
	if err := json.Unmarshal([]byte(request.Body), &in); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid request body")
	}

	record, err := h.svc.ClassifyEmail(ctx, in)
	if err != nil {
		return serviceError(headers, err)
	}

	return jsonResponse(headers, http.StatusOK, record)
}
