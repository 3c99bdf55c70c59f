package ports

import (
	"io"
	"time"
)

// StoredObject describes a blob written by ObjectStorage.
type StoredObject struct {
	Key  string
	Size int64
}

// Upload is an incoming binary part of a request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// SummaryCreatedEvent is published after a summary row is persisted.
type SummaryCreatedEvent struct {
	SummaryID      int64     `json:"summary_id"`
	UserID         int64     `json:"user_id"`
	FileIDs        string    `json:"file_ids"`
	IsConsolidated bool      `json:"is_consolidated"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries optional profile changes; nil fields are kept.
type UpdateProfileInput struct {
	FullName    *string
	Description *string
	Image       *Upload
}

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	UserID    int64
	ExpiresAt time.Time
}
