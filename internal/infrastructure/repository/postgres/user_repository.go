package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, full_name, username, email, password_hash, description, profile_image, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FullName, &u.Username, &u.Email, &u.PasswordHash, &u.Description, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Failf(domain.ErrNotFound, "user not found", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "scan user", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	err := r.db.QueryRowContext(ctx, `
INSERT INTO users (full_name, username, email, password_hash, description, profile_image, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`,
		user.FullName, user.Username, user.Email, user.PasswordHash, user.Description, user.ProfileImage, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Failf(domain.ErrConflict, "username or email already registered", err)
		}
		return domain.WrapError(domain.ErrStorage, "insert user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpdateProfile locks the row, lets apply mutate it and writes it back in one
// transaction. Concurrent updates are last-writer-wins.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, apply func(*domain.User) error) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "begin profile tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	user, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
UPDATE users
SET full_name = $2, description = $3, profile_image = $4, updated_at = $5
WHERE id = $1
`, user.ID, user.FullName, user.Description, user.ProfileImage, user.UpdatedAt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "update user profile", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "commit profile tx", err)
	}
	return user, nil
}

// DeleteCascade removes the user's summaries and files, then the user, in one
// transaction.
func (r *UserRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "begin delete tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM summaries WHERE user_id = $1`, id); err != nil {
		return domain.WrapError(domain.ErrStorage, "delete summaries", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE user_id = $1`, id); err != nil {
		return domain.WrapError(domain.ErrStorage, "delete files", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "delete user", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "delete user rows affected", err)
	}
	if affected == 0 {
		return domain.Fail(domain.ErrNotFound, "user not found")
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrStorage, "commit delete tx", err)
	}
	return nil
}
