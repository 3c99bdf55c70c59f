package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

// UserRepository persists user identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, apply func(*domain.User) error) (*domain.User, error)
	DeleteCascade(ctx context.Context, id int64) error
}

// FileRepository persists uploaded document metadata.
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) error
	GetByID(ctx context.Context, id int64) (*domain.File, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.File, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.File, error)
}

// SummaryRepository persists generated summaries.
type SummaryRepository interface {
	Create(ctx context.Context, summary *domain.Summary) error
	GetByID(ctx context.Context, id int64) (*domain.Summary, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Summary, error)
}

// ObjectStorage stores uploaded blobs under per-user directories.
type ObjectStorage interface {
	SaveDocument(ctx context.Context, dir, filename string, body io.Reader, maxSize int64) (StoredObject, error)
	SaveImage(ctx context.Context, dir, filename string, body io.Reader, maxSize int64) (StoredObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Resolve(key string) (string, error)
	Exists(key string) bool
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context, dir string) error
}

// TextExtractor extracts plain text from a stored PDF on the local filesystem.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Summarizer produces summary text from extracted document text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID int64, now time.Time) (string, error)
	Verify(token string) (TokenClaims, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// SummaryEvents publishes summary lifecycle notifications.
type SummaryEvents interface {
	PublishSummaryCreated(ctx context.Context, event SummaryCreatedEvent) error
}

// PipelineMetrics observes uploads and summarization outcomes.
type PipelineMetrics interface {
	ObserveSummary(mode, outcome string, duration time.Duration)
	ObserveUpload(bytes int64)
}
