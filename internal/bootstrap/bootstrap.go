package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/config"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
	"github.com/kirillkom/pdf-summary-service/internal/core/usecase"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/llm"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/queue/nats"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/resilience"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/security"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/pdf-summary-service/internal/observability/metrics"
)

const natsPublishTimeout = 2 * time.Second

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	AuthUC    ports.AuthService
	FileUC    ports.FileService
	SummaryUC ports.SummaryService
	ProfileUC ports.ProfileService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init file storage: %w", err)
	}

	tokens, err := security.NewJWTIssuer(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenLifetime())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	llmPolicy := resilience.DefaultConfig()
	llmPolicy.CallTimeout = cfg.LLMTimeout
	llmPolicy.BreakerEnabled = cfg.LLMBreakerEnabled
	summarizer := llm.NewSummarizer(generator, resilience.NewExecutor(llmPolicy), cfg.SummaryLocale)

	events, closeEvents, err := newSummaryEvents(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	appMetrics := metrics.NewHTTPServerMetrics("api")

	users := postgres.NewUserRepository(db)
	files := postgres.NewFileRepository(db)
	summaries := postgres.NewSummaryRepository(db)

	authUC := usecase.NewAuthUseCase(users, security.NewArgon2Hasher(), tokens)
	fileUC := usecase.NewFileUseCase(files, storage, appMetrics, cfg.MaxUploadBytes)
	summaryUC := usecase.NewSummaryUseCase(
		files,
		summaries,
		storage,
		pdftext.NewExtractor(),
		summarizer,
		events,
		appMetrics,
		logger,
	)
	profileUC := usecase.NewProfileUseCase(users, storage, logger)

	logger.Info("bootstrap_complete",
		"llm_provider", generator.Name(),
		"storage_path", cfg.StoragePath,
		"summary_events", events != nil,
	)

	return &App{
		Config:  cfg,
		Metrics: appMetrics,

		AuthUC:    authUC,
		FileUC:    fileUC,
		SummaryUC: summaryUC,
		ProfileUC: profileUC,

		closeFn: func() {
			closeEvents()
			_ = db.Close()
		},
	}, nil
}

func newGenerator(cfg config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaGenModel), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

// newSummaryEvents connects the optional event publisher. A nil SummaryEvents
// disables publishing.
func newSummaryEvents(cfg config.Config, logger *slog.Logger) (ports.SummaryEvents, func(), error) {
	if cfg.NATSURL == "" {
		return nil, func() {}, nil
	}

	policy := resilience.DefaultConfig()
	policy.CallTimeout = natsPublishTimeout
	publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(policy),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init summary events: %w", err)
	}
	logger.Info("summary_events_enabled", "subject", cfg.NATSSubject)
	return publisher, publisher.Close, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
