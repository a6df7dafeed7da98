// Package assessment runs the scoring and classification engines and keeps their history.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scoring-engine/internal/history"
	"scoring-engine/internal/metrics"
	"scoring-engine/internal/models"
	"scoring-engine/internal/services/classifier"
	s3service "scoring-engine/internal/services/s3"
	"scoring-engine/internal/services/scoring"
	"scoring-engine/internal/services/ses"
	"scoring-engine/internal/utils"
)

// Service errors
var (
	ErrInvalidBatch        = errors.New("invalid batch")
	ErrUnknownRecordKind   = errors.New("unknown record kind")
	ErrExportNotConfigured = errors.New("history export is not configured")
	ErrNotifyNotConfigured = errors.New("notifications are not configured")
)

// maxReportedErrors caps the per-row errors returned for a batch.
const maxReportedErrors = 20

// Exporter uploads a history snapshot.
type Exporter interface {
	Export(ctx context.Context, snap s3service.Snapshot) (*s3service.ExportResult, error)
}

// Notifier mails a loan decision.
type Notifier interface {
	SendDecisionNotification(ctx context.Context, params ses.DecisionNotificationParams) (*ses.SendEmailResult, error)
}

// batchSaver is implemented by repositories that can store many records at once.
type batchSaver interface {
	SaveBatch(ctx context.Context, recs []models.LoanRecord) error
}

// loanGetter is implemented by repositories with an indexed lookup.
type loanGetter interface {
	Get(ctx context.Context, id string) (models.LoanRecord, error)
}

// Options wires a Service. Nil repositories default to unbounded in-memory ones;
// a nil Exporter or Notifier disables that feature.
type Options struct {
	Registry      *scoring.Registry
	DefaultPreset string
	Classifier    *classifier.Classifier
	Loans         history.Repository[models.LoanRecord]
	Emails        history.Repository[models.EmailRecord]
	Metrics       *metrics.Metrics
	Exporter      Exporter
	Notifier      Notifier
	DashboardURL  string
	Now           func() time.Time
}

// Service scores applications, classifies e-mails and records the results.
type Service struct {
	registry      *scoring.Registry
	defaultPreset string
	classifier    *classifier.Classifier
	loans         history.Repository[models.LoanRecord]
	emails        history.Repository[models.EmailRecord]
	metrics       *metrics.Metrics
	exporter      Exporter
	notifier      Notifier
	dashboardURL  string
	now           func() time.Time
}

// New creates a service. The default preset must be registered.
func New(opts Options) (*Service, error) {
	s := &Service{
		registry:      opts.Registry,
		defaultPreset: opts.DefaultPreset,
		classifier:    opts.Classifier,
		loans:         opts.Loans,
		emails:        opts.Emails,
		metrics:       opts.Metrics,
		exporter:      opts.Exporter,
		notifier:      opts.Notifier,
		dashboardURL:  opts.DashboardURL,
		now:           opts.Now,
	}

	if s.registry == nil {
		s.registry = scoring.NewRegistry()
	}
	if s.defaultPreset == "" {
		s.defaultPreset = scoring.PresetCanonical
	}
	if _, err := s.registry.Get(s.defaultPreset); err != nil {
		return nil, err
	}
	if s.classifier == nil {
		s.classifier = classifier.New(classifier.DefaultRules())
	}
	if s.loans == nil {
		s.loans = history.NewMemory[models.LoanRecord](0)
	}
	if s.emails == nil {
		s.emails = history.NewMemory[models.EmailRecord](0)
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// DefaultPreset returns the preset used when a request names none.
func (s *Service) DefaultPreset() string {
	return s.defaultPreset
}

// Presets lists every registered scoring preset.
func (s *Service) Presets() []scoring.ScoringConfig {
	return s.registry.All()
}

func (s *Service) preset(name string) (scoring.ScoringConfig, error) {
	if name == "" {
		name = s.defaultPreset
	}
	return s.registry.Get(name)
}

// ScoreLoan validates and scores one application and saves the result.
// A failed save is logged; the decision is still returned.
func (s *Service) ScoreLoan(ctx context.Context, app models.LoanApplication, presetName string) (*models.LoanRecord, error) {
	cfg, err := s.preset(presetName)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateLoanApplication(&app); err != nil {
		return nil, err
	}

	decision := scoring.Score(app, cfg)
	record := models.NewLoanRecord(app, decision, s.now())

	if err := s.loans.Save(ctx, *record); err != nil {
		s.metrics.HistoryError(string(models.RecordKindLoan), "save")
		utils.GetLogger().Warn("Failed to save loan record",
			zap.String("record_id", record.ID),
			zap.Error(err))
	}

	s.metrics.ObserveLoan(cfg.Name, decision.Approved, decision.TotalScore)
	utils.GetLogger().Info("Scored loan application",
		zap.String("record_id", record.ID),
		zap.String("preset", cfg.Name),
		zap.Bool("approved", decision.Approved),
		zap.Int("total_score", decision.TotalScore),
		zap.Int("confidence", decision.ConfidencePercent))

	return record, nil
}

// ClassifyEmail validates and classifies one e-mail and saves the result.
func (s *Service) ClassifyEmail(ctx context.Context, in models.EmailInput) (*models.EmailRecord, error) {
	if err := models.ValidateEmailInput(&in); err != nil {
		return nil, err
	}

	classification := s.classifier.Classify(in)
	record := models.NewEmailRecord(in, classification, s.now())

	if err := s.emails.Save(ctx, *record); err != nil {
		s.metrics.HistoryError(string(models.RecordKindEmail), "save")
		utils.GetLogger().Warn("Failed to save email record",
			zap.String("record_id", record.ID),
			zap.Error(err))
	}

	s.metrics.ObserveEmail(classification.IsSpam)
	utils.GetLogger().Info("Classified email",
		zap.String("record_id", record.ID),
		zap.Bool("is_spam", classification.IsSpam),
		zap.Int("raw_score", classification.RawScore),
		zap.Strings("flags", classification.FlaggedPatterns))

	return record, nil
}

// ScoreBatch scores every valid row of a CSV upload. Invalid rows are reported
// and skipped; a file with no valid rows fails with ErrInvalidBatch.
func (s *Service) ScoreBatch(ctx context.Context, content, presetName string) (*models.BatchScoreResult, error) {
	cfg, err := s.preset(presetName)
	if err != nil {
		return nil, err
	}

	parsed, parseErrors := utils.NewCSVParser().ParseApplications(content)

	result := &models.BatchScoreResult{
		BatchID:   uuid.New().String(),
		TotalRows: len(parsed) + len(parseErrors),
		Failed:    len(parseErrors),
		Errors:    errorStrings(parseErrors),
	}

	if len(parsed) == 0 {
		result.TotalRows = 0
		return result, fmt.Errorf("%w: %s", ErrInvalidBatch, strings.Join(result.Errors, "; "))
	}

	now := s.now()
	records := make([]models.LoanRecord, 0, len(parsed))
	for _, p := range parsed {
		decision := scoring.Score(p.Application, cfg)
		rec := models.NewLoanRecord(p.Application, decision, now)
		records = append(records, *rec)
		result.Records = append(result.Records, rec)

		if decision.Approved {
			result.Approved++
		} else {
			result.Rejected++
		}
		s.metrics.ObserveLoan(cfg.Name, decision.Approved, decision.TotalScore)
	}
	result.Scored = len(records)

	if err := s.saveLoans(ctx, records); err != nil {
		s.metrics.HistoryError(string(models.RecordKindLoan), "save_batch")
		utils.GetLogger().Warn("Failed to save batch records",
			zap.String("batch_id", result.BatchID),
			zap.Error(err))
	}

	utils.GetLogger().Info("Scored batch",
		zap.String("batch_id", result.BatchID),
		zap.String("preset", cfg.Name),
		zap.Int("scored", result.Scored),
		zap.Int("approved", result.Approved),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *Service) saveLoans(ctx context.Context, records []models.LoanRecord) error {
	if saver, ok := s.loans.(batchSaver); ok {
		return saver.SaveBatch(ctx, records)
	}
	for _, rec := range records {
		if err := s.loans.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	n := len(errs)
	if n > maxReportedErrors {
		n = maxReportedErrors
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = errs[i].Error()
	}
	return out
}

// ListLoans returns the loan history, newest first.
func (s *Service) ListLoans(ctx context.Context) ([]models.LoanRecord, error) {
	records, err := s.loans.List(ctx)
	if err != nil {
		s.metrics.HistoryError(string(models.RecordKindLoan), "list")
		return nil, fmt.Errorf("failed to list loan history: %w", err)
	}
	return records, nil
}

// ListEmails returns the email history, newest first.
func (s *Service) ListEmails(ctx context.Context) ([]models.EmailRecord, error) {
	records, err := s.emails.List(ctx)
	if err != nil {
		s.metrics.HistoryError(string(models.RecordKindEmail), "list")
		return nil, fmt.Errorf("failed to list email history: %w", err)
	}
	return records, nil
}

// ClearLoans empties the loan history.
func (s *Service) ClearLoans(ctx context.Context) error {
	if err := s.loans.Clear(ctx); err != nil {
		s.metrics.HistoryError(string(models.RecordKindLoan), "clear")
		return fmt.Errorf("failed to clear loan history: %w", err)
	}
	utils.GetLogger().Info("Cleared loan history")
	return nil
}

// ClearEmails empties the email history.
func (s *Service) ClearEmails(ctx context.Context) error {
	if err := s.emails.Clear(ctx); err != nil {
		s.metrics.HistoryError(string(models.RecordKindEmail), "clear")
		return fmt.Errorf("failed to clear email history: %w", err)
	}
	utils.GetLogger().Info("Cleared email history")
	return nil
}

// Export writes a snapshot of one history to the configured exporter.
func (s *Service) Export(ctx context.Context, kind models.RecordKind) (*s3service.ExportResult, error) {
	if s.exporter == nil {
		return nil, ErrExportNotConfigured
	}

	snap := s3service.Snapshot{Kind: kind, ExportedAt: s.now().UTC()}

	switch kind {
	case models.RecordKindLoan:
		records, err := s.ListLoans(ctx)
		if err != nil {
			return nil, err
		}
		snap.Count, snap.Records = len(records), records
	case models.RecordKindEmail:
		records, err := s.ListEmails(ctx)
		if err != nil {
			return nil, err
		}
		snap.Count, snap.Records = len(records), records
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordKind, kind)
	}

	res, err := s.exporter.Export(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s history: %w", kind, err)
	}

	utils.GetLogger().Info("Exported history",
		zap.String("kind", string(kind)),
		zap.String("key", res.Key),
		zap.Int("count", res.Count))

	return res, nil
}

// Notify mails the decision of a stored loan record to the given address.
func (s *Service) Notify(ctx context.Context, to, recordID string) (*ses.SendEmailResult, error) {
	if s.notifier == nil {
		return nil, ErrNotifyNotConfigured
	}
	if err := models.ValidateRecipient(to); err != nil {
		return nil, err
	}

	record, err := s.findLoan(ctx, recordID)
	if err != nil {
		return nil, err
	}

	return s.notifier.SendDecisionNotification(ctx, ses.DecisionNotificationParams{
		To:           strings.TrimSpace(to),
		Record:       record,
		DashboardURL: s.dashboardURL,
	})
}

func (s *Service) findLoan(ctx context.Context, id string) (models.LoanRecord, error) {
	if getter, ok := s.loans.(loanGetter); ok {
		return getter.Get(ctx, id)
	}

	records, err := s.ListLoans(ctx)
	if err != nil {
		return models.LoanRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.LoanRecord{}, models.ErrRecordNotFound
}
