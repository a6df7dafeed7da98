// Package handlers provides API Gateway handlers for the scoring engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"scoring-engine/internal/models"
	"scoring-engine/internal/services/assessment"
	"scoring-engine/internal/services/scoring"
)

// clientErrors are caused by the request and map to 400.
var clientErrors = []error{
	models.ErrInvalidAge,
	models.ErrInvalidIncome,
	models.ErrInvalidCreditScore,
	models.ErrInvalidLoanAmount,
	models.ErrInvalidLoanTerm,
	models.ErrInvalidEducation,
	models.ErrInvalidEmployment,
	models.ErrInvalidMaritalStatus,
	models.ErrInvalidPropertyArea,
	models.ErrInvalidDependents,
	models.ErrEmptyEmail,
	models.ErrInvalidSender,
	models.ErrInvalidRecipient,
	scoring.ErrUnknownPreset,
	assessment.ErrInvalidBatch,
	assessment.ErrUnknownRecordKind,
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, assessment.ErrExportNotConfigured), errors.Is(err, assessment.ErrNotifyNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// corsHeaders returns the headers sent with every API Gateway response.
func corsHeaders(methods string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": methods,
		"Content-Type":                 "application/json",
	}
}

// jsonResponse creates a response with a JSON body.
func jsonResponse(headers map[string]string, statusCode int, v interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(headers, http.StatusInternalServerError, "Failed to encode response")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// serviceError maps err through StatusFor. Messages of server-side errors are not exposed.
func serviceError(headers map[string]string, err error) (events.APIGatewayProxyResponse, error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return errorResponse(headers, status, "Internal server error")
	}
	return errorResponse(headers, status, err.Error())
}

// preflight answers CORS OPTIONS requests.
func preflight(headers map[string]string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
	}
}
