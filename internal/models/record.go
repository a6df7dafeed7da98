// Package models defines the data structures for the scoring engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind identifies which history a record belongs to.
type RecordKind string

const (
	RecordKindLoan  RecordKind = "loans"
	RecordKindEmail RecordKind = "emails"
)

// IsValid checks if the record kind is known.
func (k RecordKind) IsValid() bool {
	return k == RecordKindLoan || k == RecordKindEmail
}

// LoanRecord is a scored application as kept in the loan history.
// Records are never mutated after creation.
type LoanRecord struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Application LoanApplication `json:"application"`
	Decision    LoanDecision    `json:"decision"`
}

// NewLoanRecord wraps an application and its decision into a history record.
func NewLoanRecord(app LoanApplication, decision LoanDecision, now time.Time) *LoanRecord {
	return &LoanRecord{
		ID:          newRecordID(),
		CreatedAt:   now.UTC(),
		Application: app,
		Decision:    decision,
	}
}

// EmailRecord is a classified email as kept in the email history.
type EmailRecord struct {
	ID             string              `json:"id"`
	CreatedAt      time.Time           `json:"created_at"`
	Input          EmailInput          `json:"email_input"`
	Classification EmailClassification `json:"classification"`
}

// NewEmailRecord wraps an email and its classification into a history record.
func NewEmailRecord(in EmailInput, c EmailClassification, now time.Time) *EmailRecord {
	return &EmailRecord{
		ID:             newRecordID(),
		CreatedAt:      now.UTC(),
		Input:          in,
		Classification: c,
	}
}

// newRecordID returns a time-ordered identifier (UUIDv7), falling back to a random one.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// LoanStats summarizes the loan history.
type LoanStats struct {
	Total             int     `json:"total"`
	Approved          int     `json:"approved"`
	Rejected          int     `json:"rejected"`
	ApprovalRate      float64 `json:"approval_rate"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageRiskScore  float64 `json:"average_risk_score"`
}

// EmailStats summarizes the email history.
type EmailStats struct {
	Total             int     `json:"total"`
	Spam              int     `json:"spam"`
	Ham               int     `json:"ham"`
	SpamRate          float64 `json:"spam_rate"`
	AverageConfidence float64 `json:"average_confidence"`
}

// BatchScoreResult contains the results of scoring a CSV upload.
type BatchScoreResult struct {
	BatchID   string        `json:"batch_id"`
	TotalRows int           `json:"total_rows"`
	Scored    int           `json:"scored"`
	Approved  int           `json:"approved"`
	Rejected  int           `json:"rejected"`
	Failed    int           `json:"failed"`
	Records   []*LoanRecord `json:"records,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}
