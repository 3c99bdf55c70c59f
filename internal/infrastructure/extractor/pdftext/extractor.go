package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

// Extractor reads the embedded text layer of PDF files. It does not OCR.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.Failf(domain.ErrNotFound, "file not found: "+path, err)
		}
		return "", domain.Failf(domain.ErrExtraction, "could not open PDF", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", domain.Failf(domain.ErrExtraction, "could not open PDF", err)
	}
	defer f.Close()

	reader, err := openReader(f, info.Size())
	if err != nil {
		return "", err
	}
	// 40-bit RC4 files from conforming writers open but decrypt to garbage:
	// the parser keys objects with the full MD5 digest instead of n+5 bytes.
	// They surface as page or empty-text extraction errors.
	if !reader.Trailer().Key("Encrypt").IsNull() {
		slog.Debug("pdf_decrypted_with_empty_password", "path", path)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText, err := pageText(reader.Page(i))
		if err != nil {
			return "", domain.Failf(domain.ErrExtraction, fmt.Sprintf("error reading page %d", i-1), err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", domain.Fail(domain.ErrExtraction, "no text could be extracted from the PDF")
	}
	return text.String(), nil
}

// openReader opens the document, trying an empty password when it is
// encrypted.
func openReader(f *os.File, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = domain.Failf(domain.ErrExtraction, "could not open PDF", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err = pdf.NewReaderEncrypted(f, size, func() string { return "" })
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, domain.Failf(domain.ErrExtraction, "PDF is encrypted and cannot be read", err)
		}
		return nil, domain.Failf(domain.ErrExtraction, "could not open PDF", err)
	}
	return reader, nil
}

func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
