package usecase

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

type FileUseCase struct {
	files   ports.FileRepository
	storage ports.ObjectStorage
	metrics ports.PipelineMetrics
	maxSize int64
	now     func() time.Time
}

func NewFileUseCase(
	files ports.FileRepository,
	storage ports.ObjectStorage,
	metrics ports.PipelineMetrics,
	maxSize int64,
) *FileUseCase {
	return &FileUseCase{
		files:   files,
		storage: storage,
		metrics: metrics,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func userDir(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (uc *FileUseCase) Upload(ctx context.Context, user *domain.User, filename string, body io.Reader) (*domain.File, error) {
	obj, err := uc.storage.SaveDocument(ctx, userDir(user.ID), filename, body, uc.maxSize)
	if err != nil {
		return nil, err
	}

	file := &domain.File{
		FileName:   filename,
		FilePath:   obj.Key,
		FileSize:   obj.Size,
		UploadDate: uc.now().UTC(),
		UserID:     user.ID,
	}
	if err := uc.files.Create(ctx, file); err != nil {
		if rmErr := uc.storage.Remove(ctx, obj.Key); rmErr != nil {
			return nil, fmt.Errorf("create file metadata: %w; remove stored blob: %v", err, rmErr)
		}
		return nil, fmt.Errorf("create file metadata: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.ObserveUpload(obj.Size)
	}
	return file, nil
}

func (uc *FileUseCase) List(ctx context.Context, user *domain.User) ([]domain.File, error) {
	return uc.files.ListByUser(ctx, user.ID)
}

func (uc *FileUseCase) Get(ctx context.Context, user *domain.User, fileID int64) (*domain.File, error) {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.OwnedBy(user.ID) {
		return nil, domain.Fail(domain.ErrForbidden, "not authorized to access this file")
	}
	return file, nil
}

func (uc *FileUseCase) Open(ctx context.Context, user *domain.User, fileID int64) (*domain.File, io.ReadCloser, error) {
	file, err := uc.Get(ctx, user, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := uc.storage.Open(ctx, file.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}
