package ports

import (
	"context"
	"io"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

// AuthService registers users, issues tokens and resolves bearer tokens to users.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.AccessToken, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// FileService is the inbound contract for document upload and retrieval.
type FileService interface {
	Upload(ctx context.Context, user *domain.User, filename string, body io.Reader) (*domain.File, error)
	List(ctx context.Context, user *domain.User) ([]domain.File, error)
	Get(ctx context.Context, user *domain.User, fileID int64) (*domain.File, error)
	Open(ctx context.Context, user *domain.User, fileID int64) (*domain.File, io.ReadCloser, error)
}

// SummaryService orchestrates extraction and generation of summaries.
type SummaryService interface {
	SummarizeSingle(ctx context.Context, user *domain.User, fileID int64) (*domain.Summary, error)
	SummarizeMulti(ctx context.Context, user *domain.User, fileIDs []int64) (*domain.Summary, error)
	List(ctx context.Context, user *domain.User) ([]domain.Summary, error)
	Get(ctx context.Context, user *domain.User, summaryID int64) (*domain.Summary, error)
}

// ProfileService reads, updates and deletes the caller's account.
type ProfileService interface {
	GetProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error)
	DeleteAccount(ctx context.Context, user *domain.User) error
}
