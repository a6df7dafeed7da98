// Package handlers provides API Gateway handlers for the scoring engine.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"scoring-engine/internal/services/assessment"
	"scoring-engine/internal/utils"
)

// ObjectStore reads uploaded batches and archives them.
type ObjectStore interface {
	DownloadFile(ctx context.Context, bucket, key string) ([]byte, error)
	MoveFile(ctx context.Context, bucket, sourceKey, destKey string) error
}

// CSVProcessorHandler scores CSV batches uploaded to S3.
type CSVProcessorHandler struct {
	svc    *assessment.Service
	store  ObjectStore
	preset string
}

// NewCSVProcessorHandler creates a new CSV processor handler.
func NewCSVProcessorHandler(svc *assessment.Service, store ObjectStore, preset string) *CSVProcessorHandler {
	return &CSVProcessorHandler{svc: svc, store: store, preset: preset}
}

// CSVProcessResult is the result of processing one uploaded file.
type CSVProcessResult struct {
	Message  string   `json:"message"`
	Key      string   `json:"key,omitempty"`
	BatchID  string   `json:"batch_id,omitempty"`
	Scored   int      `json:"scored"`
	Approved int      `json:"approved"`
	Rejected int      `json:"rejected"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Handle processes S3 events for uploaded CSV files.
func (h *CSVProcessorHandler) Handle(ctx context.Context, s3Event events.S3Event) ([]CSVProcessResult, error) {
	logger := utils.GetLogger()

	if len(s3Event.Records) == 0 {
		return []CSVProcessResult{{Message: "No records to process"}}, nil
	}

	results := make([]CSVProcessResult, 0, len(s3Event.Records))
	for _, record := range s3Event.Records {
		bucket := record.S3.Bucket.Name
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return results, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		logger.Info("Processing CSV file",
			utils.String("bucket", bucket),
			utils.String("key", key))

		result, err := h.process(ctx, bucket, key)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *CSVProcessorHandler) process(ctx context.Context, bucket, key string) (CSVProcessResult, error) {
	logger := utils.GetLogger()

	content, err := h.store.DownloadFile(ctx, bucket, key)
	if err != nil {
		return CSVProcessResult{}, fmt.Errorf("failed to download CSV: %w", err)
	}

	batch, err := h.svc.ScoreBatch(ctx, string(content), h.preset)
	switch {
	case errors.Is(err, assessment.ErrInvalidBatch):
		// Leave the file in place so it can be fixed and uploaded again.
		logger.Warn("Rejected CSV batch", utils.String("key", key), utils.Error(err))
		return CSVProcessResult{
			Message: "No valid applications found in CSV",
			Key:     key,
			Failed:  batch.Failed,
			Errors:  batch.Errors,
		}, nil
	case err != nil:
		return CSVProcessResult{}, fmt.Errorf("failed to score batch: %w", err)
	}

	if err := h.store.MoveFile(ctx, bucket, key, "processed/"+key); err != nil {
		logger.Warn("Failed to archive file", utils.Error(err))
	}

	return CSVProcessResult{
		Message:  "CSV processed successfully",
		Key:      key,
		BatchID:  batch.BatchID,
		Scored:   batch.Scored,
		Approved: batch.Approved,
		Rejected: batch.Rejected,
		Failed:   batch.Failed,
		Errors:   batch.Errors,
	}, nil
}
