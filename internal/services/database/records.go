// Package database provides database operations for the scoring engine.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"scoring-engine/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	loanRecordsTable  = "loan_records"
	emailRecordsTable = "email_records"
)

var loanRecordColumns = []string{
	"id", "created_at", "preset", "approved", "confidence_percent",
	"risk_score", "total_score", "factors", "application",
}

var emailRecordColumns = []string{
	"id", "created_at", "subject", "sender", "content",
	"is_spam", "confidence_percent", "raw_score", "flagged_patterns",
}

// LoanRecordRepository handles loan history database operations.
type LoanRecordRepository struct {
	db    *DB
	limit uint64
}

// NewLoanRecordRepository creates a new loan record repository.
// List returns at most limit rows; 0 means no limit.
func NewLoanRecordRepository(db *DB, limit int) *LoanRecordRepository {
	return &LoanRecordRepository{db: db, limit: nonNegative(limit)}
}

// Save inserts a loan record.
func (r *LoanRecordRepository) Save(ctx context.Context, rec models.LoanRecord) error {
	query, args, err := loanInsert(rec).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build loan record insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save loan record: %w", err)
	}
	return nil
}

// SaveBatch inserts several records in one transaction.
func (r *LoanRecordRepository) SaveBatch(ctx context.Context, recs []models.LoanRecord) error {
	if len(recs) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, rec := range recs {
			query, args, err := loanInsert(rec).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build loan record insert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to save loan record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func loanInsert(rec models.LoanRecord) sq.InsertBuilder {
	app, _ := json.Marshal(rec.Application)
	return psql.Insert(loanRecordsTable).
		Columns(loanRecordColumns...).
		Values(
			rec.ID,
			rec.CreatedAt,
			rec.Decision.Preset,
			rec.Decision.Approved,
			rec.Decision.ConfidencePercent,
			rec.Decision.RiskScore,
			rec.Decision.TotalScore,
			nonNilStrings(rec.Decision.Factors),
			app,
		)
}

// List returns loan records, newest first.
func (r *LoanRecordRepository) List(ctx context.Context) ([]models.LoanRecord, error) {
	builder := psql.Select(loanRecordColumns...).
		From(loanRecordsTable).
		OrderBy("created_at DESC", "id DESC")
	if r.limit > 0 {
		builder = builder.Limit(r.limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build loan record query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan records: %w", err)
	}
	defer rows.Close()

	var records []models.LoanRecord
	for rows.Next() {
		rec, err := scanLoanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan records: %w", err)
	}

	return records, nil
}

// Get returns a single loan record.
func (r *LoanRecordRepository) Get(ctx context.Context, id string) (models.LoanRecord, error) {
	query, args, err := psql.Select(loanRecordColumns...).
		From(loanRecordsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.LoanRecord{}, fmt.Errorf("failed to build loan record query: %w", err)
	}

	rec, err := scanLoanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.LoanRecord{}, models.ErrRecordNotFound
	}
	return rec, err
}

// Clear deletes every loan record.
func (r *LoanRecordRepository) Clear(ctx context.Context) error {
	query, args, err := psql.Delete(loanRecordsTable).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build loan record delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear loan records: %w", err)
	}
	return nil
}

func scanLoanRecord(row pgx.Row) (models.LoanRecord, error) {
	var (
		rec       models.LoanRecord
		createdAt time.Time
		app       []byte
	)

	err := row.Scan(
		&rec.ID,
		&createdAt,
		&rec.Decision.Preset,
		&rec.Decision.Approved,
		&rec.Decision.ConfidencePercent,
		&rec.Decision.RiskScore,
		&rec.Decision.TotalScore,
		&rec.Decision.Factors,
		&app,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan loan record: %w", err)
	}

	if err := json.Unmarshal(app, &rec.Application); err != nil {
		return rec, fmt.Errorf("failed to decode application of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = createdAt.UTC()
	rec.Decision.Factors = nonNilStrings(rec.Decision.Factors)
	return rec, nil
}

// EmailRecordRepository handles email history database operations.
type EmailRecordRepository struct {
	db    *DB
	limit uint64
}

// NewEmailRecordRepository creates a new email record repository.
func NewEmailRecordRepository(db *DB, limit int) *EmailRecordRepository {
	return &EmailRecordRepository{db: db, limit: nonNegative(limit)}
}

// Save inserts an email record.
func (r *EmailRecordRepository) Save(ctx context.Context, rec models.EmailRecord) error {
	query, args, err := psql.Insert(emailRecordsTable).
		Columns(emailRecordColumns...).
		Values(
			rec.ID,
			rec.CreatedAt,
			rec.Input.Subject,
			rec.Input.Sender,
			rec.Input.Content,
			rec.Classification.IsSpam,
			rec.Classification.ConfidencePercent,
			rec.Classification.RawScore,
			nonNilStrings(rec.Classification.FlaggedPatterns),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build email record insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save email record: %w", err)
	}
	return nil
}

// List returns email records, newest first.
func (r *EmailRecordRepository) List(ctx context.Context) ([]models.EmailRecord, error) {
	builder := psql.Select(emailRecordColumns...).
		From(emailRecordsTable).
		OrderBy("created_at DESC", "id DESC")
	if r.limit > 0 {
		builder = builder.Limit(r.limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build email record query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list email records: %w", err)
	}
	defer rows.Close()

	var records []models.EmailRecord
	for rows.Next() {
		var (
			rec       models.EmailRecord
			createdAt time.Time
		)
		if err := rows.Scan(
			&rec.ID,
			&createdAt,
			&rec.Input.Subject,
			&rec.Input.Sender,
			&rec.Input.Content,
			&rec.Classification.IsSpam,
			&rec.Classification.ConfidencePercent,
			&rec.Classification.RawScore,
			&rec.Classification.FlaggedPatterns,
		); err != nil {
			return nil, fmt.Errorf("failed to scan email record: %w", err)
		}
		rec.CreatedAt = createdAt.UTC()
		rec.Classification.FlaggedPatterns = nonNilStrings(rec.Classification.FlaggedPatterns)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email records: %w", err)
	}

	return records, nil
}

// Clear deletes every email record.
func (r *EmailRecordRepository) Clear(ctx context.Context) error {
	query, args, err := psql.Delete(emailRecordsTable).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build email record delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear email records: %w", err)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNegative(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
