package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

const minPasswordLength = 6

type AuthUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	now    func() time.Time
}

func NewAuthUseCase(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
) *AuthUseCase {
	return &AuthUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	if err := uc.ensureFree(ctx, uc.users.GetByUsername, input.Username, "username already registered"); err != nil {
		return nil, err
	}
	if err := uc.ensureFree(ctx, uc.users.GetByEmail, input.Email, "email already registered"); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FullName:     input.FullName,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func validateRegistration(input ports.RegisterInput) error {
	switch {
	case input.FullName == "":
		return domain.Fail(domain.ErrValidation, "full_name is required")
	case input.Username == "":
		return domain.Fail(domain.ErrValidation, "username is required")
	case input.Email == "":
		return domain.Fail(domain.ErrValidation, "email is required")
	case len(input.Password) < minPasswordLength:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	addr, err := mail.ParseAddress(input.Email)
	if err != nil || addr.Address != input.Email {
		return domain.Fail(domain.ErrValidation, "email is not valid")
	}
	return nil
}

func (uc *AuthUseCase) ensureFree(
	ctx context.Context,
	lookup func(context.Context, string) (*domain.User, error),
	value, conflictMessage string,
) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return domain.Fail(domain.ErrConflict, conflictMessage)
	case domain.IsKind(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup user: %w", err)
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*domain.AccessToken, error) {
	user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.Fail(domain.ErrUnauthorized, "invalid credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := uc.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, domain.Fail(domain.ErrUnauthorized, "invalid credentials")
	}

	token, err := uc.tokens.Issue(user.ID, uc.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.AccessToken{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to its user. Every failure is
// ErrUnauthorized.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.Fail(domain.ErrUnauthorized, "not authenticated")
	}
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnauthorized) {
			return nil, err
		}
		return nil, domain.Failf(domain.ErrUnauthorized, "could not validate credentials", err)
	}

	user, err := uc.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.Failf(domain.ErrUnauthorized, "could not validate credentials", err)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
