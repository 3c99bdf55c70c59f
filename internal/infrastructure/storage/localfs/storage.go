package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

const (
	DefaultMaxDocumentSize = 50 * 1024 * 1024
	DefaultMaxImageSize    = 5 * 1024 * 1024

	chunkSize = 1024 * 1024
)

var (
	documentExtensions = map[string]struct{}{".pdf": {}}
	imageExtensions    = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./storage"
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: abs}, nil
}

// SaveDocument stores a PDF under dir. See save for the write algorithm.
func (s *Storage) SaveDocument(ctx context.Context, dir, filename string, body io.Reader, maxSize int64) (ports.StoredObject, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}
	if !allowed(filename, documentExtensions) {
		return ports.StoredObject{}, domain.Fail(domain.ErrValidation, "file type not allowed: only .pdf is accepted")
	}
	return s.save(ctx, dir, sanitizeFilename(filename, "file.pdf"), body, maxSize)
}

func (s *Storage) SaveImage(ctx context.Context, dir, filename string, body io.Reader, maxSize int64) (ports.StoredObject, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	if !allowed(filename, imageExtensions) {
		return ports.StoredObject{}, domain.Fail(domain.ErrValidation, "image type not allowed: use .jpg or .png")
	}
	return s.save(ctx, dir, sanitizeFilename(filename, "image"), body, maxSize)
}

// save copies body into <base>/<dir>/<token>_<name> in fixed-size chunks and
// removes the partial file as soon as more than maxSize bytes arrive.
func (s *Storage) save(ctx context.Context, dir, safeName string, body io.Reader, maxSize int64) (ports.StoredObject, error) {
	dirPath, err := s.Resolve(dir)
	if err != nil {
		return ports.StoredObject{}, err
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return ports.StoredObject{}, fmt.Errorf("create destination dir: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + safeName
	path := filepath.Join(dirPath, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ports.StoredObject{}, fmt.Errorf("create file: %w", err)
	}

	written, err := copyLimited(ctx, f, body, maxSize)
	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return ports.StoredObject{}, err
	}

	key := filepath.ToSlash(filepath.Join(filepath.Clean(dir), name))
	return ports.StoredObject{Key: key, Size: written}, nil
}

func copyLimited(ctx context.Context, dst io.Writer, src io.Reader, maxSize int64) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > maxSize {
				return total, domain.Fail(domain.ErrValidation, fmt.Sprintf("file exceeds the maximum size of %d MB", maxSize/(1024*1024)))
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("write file: %w", err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return total, nil
		}
		if readErr != nil {
			return total, fmt.Errorf("read upload: %w", readErr)
		}
	}
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.Failf(domain.ErrNotFound, "stored file not found", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Resolve maps a storage key to an absolute path inside the storage root.
func (s *Storage) Resolve(key string) (string, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.Fail(domain.ErrValidation, "invalid storage path")
	}
	return path, nil
}

func (s *Storage) Exists(key string) bool {
	path, err := s.Resolve(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (s *Storage) Remove(_ context.Context, key string) error {
	path, err := s.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Storage) RemoveAll(_ context.Context, dir string) error {
	path, err := s.Resolve(dir)
	if err != nil {
		return err
	}
	if path == s.basePath {
		return domain.Fail(domain.ErrValidation, "refusing to remove storage root")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove dir: %w", err)
	}
	return nil
}

func allowed(filename string, extensions map[string]struct{}) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(baseName(filename)))]
	return ok
}

func baseName(name string) string {
	return filepath.Base(strings.ReplaceAll(name, `\`, "/"))
}

func sanitizeFilename(name, fallback string) string {
	base := baseName(name)
	if base == "." || base == "/" {
		return fallback
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '-', r == '_', r == '(', r == ')':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return fallback
	}
	return base
}
