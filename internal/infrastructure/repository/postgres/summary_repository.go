package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

const summaryColumns = `id, file_ids, summary_text, is_consolidated, created_at, user_id`

func scanSummary(row rowScanner) (domain.Summary, error) {
	var s domain.Summary
	if err := row.Scan(&s.ID, &s.FileIDs, &s.SummaryText, &s.IsConsolidated, &s.CreatedAt, &s.UserID); err != nil {
		return s, err
	}
	if _, err := s.SourceIDs(); err != nil {
		return s, domain.WrapError(domain.ErrStorage, "decode summary "+strconv.FormatInt(s.ID, 10)+" file ids", err)
	}
	return s, nil
}

func (r *SummaryRepository) Create(ctx context.Context, summary *domain.Summary) error {
	if strings.TrimSpace(summary.FileIDs) == "" {
		return domain.Fail(domain.ErrValidation, "summary must reference at least one file")
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO summaries (file_ids, summary_text, is_consolidated, created_at, user_id)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, summary.FileIDs, summary.SummaryText, summary.IsConsolidated, summary.CreatedAt, summary.UserID).Scan(&summary.ID)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "insert summary", err)
	}
	return nil
}

func (r *SummaryRepository) GetByID(ctx context.Context, id int64) (*domain.Summary, error) {
	s, err := scanSummary(r.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Failf(domain.ErrNotFound, "summary not found", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "scan summary", err)
	}
	return &s, nil
}

func (r *SummaryRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+summaryColumns+`
FROM summaries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "query user summaries", err)
	}
	defer rows.Close()

	out := make([]domain.Summary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "scan summary", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "iterate summaries", err)
	}
	return out, nil
}
