package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = `id, file_name, file_path, file_size, upload_date, user_id`

func scanFile(row rowScanner) (domain.File, error) {
	var f domain.File
	err := row.Scan(&f.ID, &f.FileName, &f.FilePath, &f.FileSize, &f.UploadDate, &f.UserID)
	return f, err
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO files (file_name, file_path, file_size, upload_date, user_id)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, file.FileName, file.FilePath, file.FileSize, file.UploadDate, file.UserID).Scan(&file.ID)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "insert file", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*domain.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Failf(domain.ErrNotFound, "file not found", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "scan file", err)
	}
	return &f, nil
}

// ListByIDs returns the existing rows among ids, each at most once, in no
// particular order.
func (r *FileRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.File, error) {
	if len(ids) == 0 {
		return []domain.File{}, nil
	}
	marks, args := inPlaceholders(ids)
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "query files by ids", err)
	}
	return collectFiles(rows)
}

func (r *FileRepository) ListByUser(ctx context.Context, userID int64) ([]domain.File, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+fileColumns+`
FROM files
WHERE user_id = $1
ORDER BY upload_date DESC, id DESC
`, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "query user files", err)
	}
	return collectFiles(rows)
}

func collectFiles(rows *sql.Rows) ([]domain.File, error) {
	defer rows.Close()
	out := make([]domain.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "scan file", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "iterate files", err)
	}
	return out, nil
}
