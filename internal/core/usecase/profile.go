package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

const profileImagesDir = "profile_images"

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

type ProfileUseCase struct {
	users   ports.UserRepository
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewProfileUseCase(users ports.UserRepository, storage ports.ObjectStorage, logger *slog.Logger) *ProfileUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileUseCase{
		users:   users,
		storage: storage,
		logger:  logger,
	}
}

func imageDir(userID int64) string {
	return path.Join(profileImagesDir, userDir(userID))
}

func (uc *ProfileUseCase) GetProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	return uc.users.GetByID(ctx, user.ID)
}

func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, user *domain.User, input ports.UpdateProfileInput) (*domain.User, error) {
	var fullName string
	if input.FullName != nil {
		fullName = strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, domain.Fail(domain.ErrValidation, "full_name cannot be empty")
		}
	}

	var newImage string
	if input.Image != nil {
		contentType := strings.ToLower(strings.TrimSpace(input.Image.ContentType))
		if _, ok := allowedImageTypes[contentType]; !ok {
			return nil, domain.Fail(domain.ErrValidation, "profile image must be a JPEG or PNG")
		}
		obj, err := uc.storage.SaveImage(ctx, imageDir(user.ID), input.Image.Filename, input.Image.Body, 0)
		if err != nil {
			return nil, err
		}
		newImage = obj.Key
	}

	var oldImage string
	updated, err := uc.users.UpdateProfile(ctx, user.ID, func(u *domain.User) error {
		if input.FullName != nil {
			u.FullName = fullName
		}
		if input.Description != nil {
			u.Description = *input.Description
		}
		if newImage != "" {
			oldImage = u.ProfileImage
			u.ProfileImage = newImage
		}
		return nil
	})
	if err != nil {
		if newImage != "" {
			uc.removeQuietly(ctx, newImage)
		}
		return nil, err
	}

	if oldImage != "" && oldImage != newImage {
		uc.removeQuietly(ctx, oldImage)
	}
	return updated, nil
}

// DeleteAccount removes the user and everything they own. Storage cleanup runs
// after the database transaction commits and only logs its failures.
func (uc *ProfileUseCase) DeleteAccount(ctx context.Context, user *domain.User) error {
	if err := uc.users.DeleteCascade(ctx, user.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	for _, dir := range []string{userDir(user.ID), imageDir(user.ID)} {
		if err := uc.storage.RemoveAll(ctx, dir); err != nil {
			uc.logger.Warn("account_storage_cleanup_failed", "user_id", user.ID, "dir", dir, "error", err.Error())
		}
	}
	uc.logger.Info("account_deleted", "user_id", user.ID)
	return nil
}

func (uc *ProfileUseCase) removeQuietly(ctx context.Context, key string) {
	if err := uc.storage.Remove(ctx, key); err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		uc.logger.Warn("profile_image_cleanup_failed", "key", key, "error", err.Error())
	}
}
