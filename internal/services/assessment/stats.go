package assessment

import (
	"context"
	"math"

	"scoring-engine/internal/models"
)

// LoanStats summarizes the loan history.
func (s *Service) LoanStats(ctx context.Context) (*models.LoanStats, error) {
	records, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeLoans(records), nil
}

// EmailStats summarizes the email history.
func (s *Service) EmailStats(ctx context.Context) (*models.EmailStats, error) {
	records, err := s.ListEmails(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeEmails(records), nil
}

// SummarizeLoans computes the dashboard counters. Rates and averages are
// rounded to one decimal; an empty history yields zeros.
func SummarizeLoans(records []models.LoanRecord) *models.LoanStats {
	stats := &models.LoanStats{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	var confidence, risk int
	for _, r := range records {
		if r.Decision.Approved {
			stats.Approved++
		}
		confidence += r.Decision.ConfidencePercent
		risk += r.Decision.RiskScore
	}

	n := float64(len(records))
	stats.Rejected = stats.Total - stats.Approved
	stats.ApprovalRate = round1(float64(stats.Approved) * 100 / n)
	stats.AverageConfidence = round1(float64(confidence) / n)
	stats.AverageRiskScore = round1(float64(risk) / n)
	return stats
}

// SummarizeEmails computes the dashboard counters for the email history.
func SummarizeEmails(records []models.EmailRecord) *models.EmailStats {
	stats := &models.EmailStats{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	var confidence int
	for _, r := range records {
		if r.Classification.IsSpam {
			stats.Spam++
		}
		confidence += r.Classification.ConfidencePercent
	}

	n := float64(len(records))
	stats.Ham = stats.Total - stats.Spam
	stats.SpamRate = round1(float64(stats.Spam) * 100 / n)
	stats.AverageConfidence = round1(float64(confidence) / n)
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
