// Package models defines the data structures for the scoring engine.
package models

// EmailInput is the input of a single classification call.
type EmailInput struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// EmailClassification is the output of a classification call.
type EmailClassification struct {
	IsSpam            bool     `json:"is_spam"`
	ConfidencePercent int      `json:"confidence_percent"`
	FlaggedPatterns   []string `json:"flagged_patterns"`
	RawScore          int      `json:"raw_score"`
}
