package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// MaxSummaryFiles bounds the file ids of one consolidated summary, duplicates
// included.
const MaxSummaryFiles = 100

// documentSeparator joins the texts of several documents before a
// consolidated summary.
const documentSeparator = "\n\n"

type SummaryUseCase struct {
	files      ports.FileRepository
	summaries  ports.SummaryRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	summarizer ports.Summarizer
	events     ports.SummaryEvents
	metrics    ports.PipelineMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewSummaryUseCase wires the pipeline. events and metrics are optional.
func NewSummaryUseCase(
	files ports.FileRepository,
	summaries ports.SummaryRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	summarizer ports.Summarizer,
	events ports.SummaryEvents,
	metrics ports.PipelineMetrics,
	logger *slog.Logger,
) *SummaryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryUseCase{
		files:      files,
		summaries:  summaries,
		storage:    storage,
		extractor:  extractor,
		summarizer: summarizer,
		events:     events,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *SummaryUseCase) SummarizeSingle(ctx context.Context, user *domain.User, fileID int64) (summary *domain.Summary, err error) {
	defer uc.observe(ModeSingle, time.Now(), &err)

	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.OwnedBy(user.ID) {
		return nil, domain.Fail(domain.ErrForbidden, "not authorized to access this file")
	}

	text, err := uc.extract(ctx, file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.Fail(domain.ErrValidation, "the document has no text to summarize")
	}

	return uc.generate(ctx, user, text, []int64{fileID}, false)
}

// SummarizeMulti produces one consolidated summary over fileIDs in the given
// order. A failure on any file aborts the request without writing a summary.
func (uc *SummaryUseCase) SummarizeMulti(ctx context.Context, user *domain.User, fileIDs []int64) (summary *domain.Summary, err error) {
	defer uc.observe(ModeMulti, time.Now(), &err)

	if len(fileIDs) == 0 {
		return nil, domain.Fail(domain.ErrValidation, "at least one file id is required")
	}
	if len(fileIDs) > MaxSummaryFiles {
		return nil, domain.Fail(domain.ErrValidation, "at most "+strconv.Itoa(MaxSummaryFiles)+" file ids are allowed")
	}

	unique := distinct(fileIDs)
	found, err := uc.files.ListByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.File, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	if len(byID) != len(unique) {
		return nil, domain.Fail(domain.ErrNotFound, "one or more files were not found")
	}
	for _, file := range byID {
		if !file.OwnedBy(user.ID) {
			return nil, domain.Fail(domain.ErrForbidden, "not authorized to access one or more files")
		}
	}

	texts := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		text, err := uc.extract(ctx, byID[id])
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	combined := strings.Join(texts, documentSeparator)
	if strings.TrimSpace(combined) == "" {
		return nil, domain.Fail(domain.ErrValidation, "the documents have no text to summarize")
	}

	return uc.generate(ctx, user, combined, fileIDs, true)
}

func (uc *SummaryUseCase) List(ctx context.Context, user *domain.User) ([]domain.Summary, error) {
	return uc.summaries.ListByUser(ctx, user.ID)
}

func (uc *SummaryUseCase) Get(ctx context.Context, user *domain.User, summaryID int64) (*domain.Summary, error) {
	summary, err := uc.summaries.GetByID(ctx, summaryID)
	if err != nil {
		return nil, err
	}
	if !summary.OwnedBy(user.ID) {
		return nil, domain.Fail(domain.ErrForbidden, "not authorized to access this summary")
	}
	return summary, nil
}

func (uc *SummaryUseCase) extract(ctx context.Context, file *domain.File) (string, error) {
	if !uc.storage.Exists(file.FilePath) {
		return "", domain.Fail(domain.ErrNotFound, "file "+strconv.FormatInt(file.ID, 10)+" is missing from storage")
	}
	path, err := uc.storage.Resolve(file.FilePath)
	if err != nil {
		return "", err
	}
	return uc.extractor.Extract(ctx, path)
}

func (uc *SummaryUseCase) generate(
	ctx context.Context,
	user *domain.User,
	text string,
	fileIDs []int64,
	consolidated bool,
) (*domain.Summary, error) {
	summaryText, err := uc.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		FileIDs:        domain.JoinFileIDs(fileIDs),
		SummaryText:    summaryText,
		IsConsolidated: consolidated,
		CreatedAt:      uc.now().UTC(),
		UserID:         user.ID,
	}
	if err := uc.summaries.Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("persist summary: %w", err)
	}

	uc.logger.Info("summary_created",
		"summary_id", summary.ID,
		"user_id", summary.UserID,
		"file_ids", summary.FileIDs,
		"is_consolidated", summary.IsConsolidated,
	)
	uc.publish(ctx, summary)
	return summary, nil
}

func (uc *SummaryUseCase) publish(ctx context.Context, summary *domain.Summary) {
	if uc.events == nil {
		return
	}
	err := uc.events.PublishSummaryCreated(ctx, ports.SummaryCreatedEvent{
		SummaryID:      summary.ID,
		UserID:         summary.UserID,
		FileIDs:        summary.FileIDs,
		IsConsolidated: summary.IsConsolidated,
		CreatedAt:      summary.CreatedAt,
	})
	if err != nil {
		uc.logger.Warn("summary_event_publish_failed", "summary_id", summary.ID, "error", err.Error())
	}
}

func (uc *SummaryUseCase) observe(mode string, started time.Time, errp *error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveSummary(mode, Outcome(*errp), time.Since(started))
}

// Outcome labels err by its domain kind for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrExtraction):
		return "extraction"
	case errors.Is(err, domain.ErrGeneration):
		return "generation"
	default:
		return "error"
	}
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
