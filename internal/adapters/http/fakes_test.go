package httpadapter

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/config"
	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

const validToken = "valid-token"

var testUser = &domain.User{ID: 1, FullName: "Ana", Username: "ana", Email: "ana@example.com", PasswordHash: "secret-hash"}

type authFake struct {
	registerErr error
	loginErr    error
	registered  ports.RegisterInput
}

func (f *authFake) Register(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
	f.registered = input
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: 2, FullName: input.FullName, Username: input.Username, Email: input.Email, PasswordHash: "h"}, nil
}

func (f *authFake) Login(_ context.Context, username, password string) (*domain.AccessToken, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if username != "ana" || password != "secret1" {
		return nil, domain.Fail(domain.ErrUnauthorized, "invalid credentials")
	}
	return &domain.AccessToken{AccessToken: validToken, TokenType: "bearer"}, nil
}

func (f *authFake) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token == "expired" {
		return nil, domain.Fail(domain.ErrUnauthorized, "token expired")
	}
	if token != validToken {
		return nil, domain.Fail(domain.ErrUnauthorized, "could not validate credentials")
	}
	return testUser, nil
}

type filesFake struct {
	uploadedName string
	uploadedBody string
	err          error
}

func (f *filesFake) Upload(_ context.Context, user *domain.User, filename string, body io.Reader) (*domain.File, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.uploadedName = filename
	f.uploadedBody = string(raw)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.File{ID: 10, FileName: filename, FilePath: "1/tok_" + filename, FileSize: int64(len(raw)), UserID: user.ID}, nil
}

func (f *filesFake) List(context.Context, *domain.User) ([]domain.File, error) {
	return []domain.File{{ID: 10, FileName: "a.pdf", UserID: 1}}, nil
}

func (f *filesFake) Get(_ context.Context, _ *domain.User, id int64) (*domain.File, error) {
	switch id {
	case 10:
		return &domain.File{ID: 10, FileName: "a.pdf", UserID: 1}, nil
	case 20:
		return nil, domain.Fail(domain.ErrForbidden, "not authorized to access this file")
	default:
		return nil, domain.Fail(domain.ErrNotFound, "file not found")
	}
}

func (f *filesFake) Open(ctx context.Context, user *domain.User, id int64) (*domain.File, io.ReadCloser, error) {
	file, err := f.Get(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	file.FileName = "relatório final.pdf"
	file.FileSize = int64(len("%PDF-1.4"))
	return file, io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}

type summariesFake struct {
	singleErr error
	multiIDs  []int64
	block     chan struct{}
}

func (f *summariesFake) SummarizeSingle(_ context.Context, user *domain.User, fileID int64) (*domain.Summary, error) {
	if f.block != nil {
		<-f.block
	}
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	return &domain.Summary{ID: 1, FileIDs: "10", SummaryText: "resumo", UserID: user.ID}, nil
}

func (f *summariesFake) SummarizeMulti(_ context.Context, user *domain.User, fileIDs []int64) (*domain.Summary, error) {
	f.multiIDs = fileIDs
	if len(fileIDs) == 0 {
		return nil, domain.Fail(domain.ErrValidation, "at least one file id is required")
	}
	return &domain.Summary{ID: 2, FileIDs: domain.JoinFileIDs(fileIDs), SummaryText: "resumo", IsConsolidated: true, UserID: user.ID}, nil
}

func (f *summariesFake) List(context.Context, *domain.User) ([]domain.Summary, error) {
	return []domain.Summary{}, nil
}

func (f *summariesFake) Get(_ context.Context, _ *domain.User, id int64) (*domain.Summary, error) {
	if id == 1 {
		return &domain.Summary{ID: 1, FileIDs: "10", UserID: 1}, nil
	}
	return nil, domain.Fail(domain.ErrNotFound, "summary not found")
}

type profileFake struct {
	input   ports.UpdateProfileInput
	image   string
	deleted bool
}

func (f *profileFake) GetProfile(context.Context, *domain.User) (*domain.User, error) {
	return testUser, nil
}

func (f *profileFake) UpdateProfile(_ context.Context, user *domain.User, input ports.UpdateProfileInput) (*domain.User, error) {
	f.input = input
	if input.Image != nil {
		raw, _ := io.ReadAll(input.Image.Body)
		f.image = string(raw)
		if input.Image.ContentType != "image/png" {
			return nil, domain.Fail(domain.ErrValidation, "profile image must be a JPEG or PNG")
		}
	}
	updated := *user
	if input.FullName != nil {
		updated.FullName = *input.FullName
	}
	return &updated, nil
}

func (f *profileFake) DeleteAccount(context.Context, *domain.User) error {
	f.deleted = true
	return nil
}

type testServer struct {
	auth      *authFake
	files     *filesFake
	summaries *summariesFake
	profile   *profileFake
}

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes:       1 << 20,
		CORSOrigins:          "http://localhost:5173",
		SummaryRatePerMinute: 600,
		SummaryRateBurst:     100,
		SummaryMaxConcurrent: 4,
		SummaryQueueTimeout:  50 * time.Millisecond,
	}
}

func newTestServer(cfg config.Config) (*testServer, *Router) {
	s := &testServer{
		auth:      &authFake{},
		files:     &filesFake{},
		summaries: &summariesFake{},
		profile:   &profileFake{},
	}
	return s, NewRouter(cfg, Dependencies{
		Auth:      s.auth,
		Files:     s.files,
		Summaries: s.summaries,
		Profile:   s.profile,
	})
}

var errBoom = errors.New("connection reset by peer at 10.0.0.5")
