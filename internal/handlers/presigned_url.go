// Package handlers provides API Gateway handlers for the scoring engine.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	s3service "scoring-engine/internal/services/s3"
	"scoring-engine/internal/utils"
)

// uploadURLExpiryMinutes is how long a batch upload URL stays valid.
const uploadURLExpiryMinutes = 60

// UploadSigner issues presigned upload URLs.
type UploadSigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiryMinutes int) (*s3service.PresignedURLResult, error)
}

// PresignedURLHandler handles requests for generating presigned S3 URLs
// for batch CSV uploads.
type PresignedURLHandler struct {
	signer UploadSigner
	now    func() time.Time
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(signer UploadSigner) *PresignedURLHandler {
	return &PresignedURLHandler{signer: signer, now: time.Now}
}

// PresignedURLResponse is the response structure for presigned URL requests.
type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Handle processes the API Gateway request for generating presigned URLs.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := corsHeaders("GET,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return preflight(headers), nil
	}

	filename := request.QueryStringParameters["filename"]
	if filename == "" {
		filename = "applications_" + uuid.New().String()[:8] + ".csv"
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return errorResponse(headers, http.StatusBadRequest, "Only CSV files are allowed")
	}

	key := UploadKey(h.now(), uuid.New().String(), filename)

	result, err := h.signer.GeneratePresignedUploadURL(ctx, key, "text/csv", uploadURLExpiryMinutes)
	if err != nil {
		logger.Error("Failed to generate presigned URL", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	return jsonResponse(headers, http.StatusOK, PresignedURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: uploadURLExpiryMinutes * 60,
	})
}

// UploadKey builds uploads/<yyyy/mm/dd>/<id>_<filename>.
func UploadKey(at time.Time, id, filename string) string {
	return "uploads/" + at.UTC().Format("2006/01/02") + "/" + id + "_" + sanitizeFilename(filename)
}

// sanitizeFilename keeps letters, digits, dots, dashes and underscores.
func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if len(safe) > 100 {
		safe = safe[len(safe)-100:]
	}
	return safe
}
