// Package bootstrap wires the assessment service from configuration.
// The local server and every Lambda entry point start through New.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scoring-engine/internal/config"
	"scoring-engine/internal/history"
	"scoring-engine/internal/metrics"
	"scoring-engine/internal/models"
	"scoring-engine/internal/ruleset"
	"scoring-engine/internal/services/assessment"
	"scoring-engine/internal/services/classifier"
	"scoring-engine/internal/services/database"
	s3service "scoring-engine/internal/services/s3"
	"scoring-engine/internal/services/scoring"
	"scoring-engine/internal/services/ses"
	"scoring-engine/internal/utils"
)

// App holds the service and the infrastructure it was built on.
type App struct {
	Config  *config.Config
	Service *assessment.Service
	Metrics *metrics.Metrics
	Storage *s3service.Service // nil when S3_BUCKET is empty

	db    *database.DB
	redis *redis.Client
}

// New builds an App. Optional integrations (S3 export, SES) are skipped when
// not configured; a configured history backend that cannot be reached is an error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := utils.GetLogger()

	rules, err := ruleset.Load(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	registry := scoring.NewRegistry()
	if err := rules.RegisterPresets(registry); err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	loans, emails, err := app.openHistory(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	opts := assessment.Options{
		Registry:      registry,
		DefaultPreset: cfg.ScoringPreset,
		Classifier:    classifier.New(rules.Patterns),
		Loans:         loans,
		Emails:        emails,
		Metrics:       app.Metrics,
		DashboardURL:  cfg.DashboardURL,
	}

	if cfg.S3Bucket != "" {
		storage, err := s3service.NewService(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Storage = storage
		opts.Exporter = storage
	}

	if cfg.SESSenderEmail != "" {
		mailer, err := ses.NewService(ctx, cfg.AWSRegion, cfg.SESSenderEmail)
		if err != nil {
			app.Close()
			return nil, err
		}
		opts.Notifier = mailer
	}

	app.Service, err = assessment.New(opts)
	if err != nil {
		app.Close()
		return nil, err
	}

	logger.Info("Assessment service ready",
		zap.String("history_backend", cfg.HistoryBackend),
		zap.String("default_preset", app.Service.DefaultPreset()),
		zap.Strings("presets", registry.Names()),
		zap.Bool("export", opts.Exporter != nil),
		zap.Bool("notify", opts.Notifier != nil))

	return app, nil
}

func (a *App) openHistory(ctx context.Context) (history.Repository[models.LoanRecord], history.Repository[models.EmailRecord], error) {
	cfg := a.Config

	switch cfg.HistoryBackend {
	case config.HistoryRedis:
		client := history.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		a.redis = client
		return history.NewRedisRepository[models.LoanRecord](client, cfg.RedisKey(string(models.RecordKindLoan)), cfg.HistoryLimit),
			history.NewRedisRepository[models.EmailRecord](client, cfg.RedisKey(string(models.RecordKindEmail)), cfg.HistoryLimit),
			nil

	case config.HistoryPostgres:
		if cfg.AutoMigrate {
			applied, err := database.Migrate(ctx, cfg.DatabaseURL())
			if err != nil {
				return nil, nil, err
			}
			utils.GetLogger().Info("Applied migrations", zap.Strings("migrations", applied))
		}
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		a.db = db
		return database.NewLoanRecordRepository(db, cfg.HistoryLimit),
			database.NewEmailRecordRepository(db, cfg.HistoryLimit),
			nil

	default:
		return history.NewMemory[models.LoanRecord](cfg.HistoryLimit),
			history.NewMemory[models.EmailRecord](cfg.HistoryLimit),
			nil
	}
}

// HealthCheck reports the state of the history backend: "memory",
// "connected" or "disconnected".
func (a *App) HealthCheck(ctx context.Context) (string, error) {
	switch {
	case a.db != nil:
		if err := a.db.HealthCheck(ctx); err != nil {
			return "disconnected", err
		}
		return "connected", nil
	case a.redis != nil:
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return "disconnected", err
		}
		return "connected", nil
	}
	return config.HistoryMemory, nil
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
