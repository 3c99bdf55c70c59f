package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

type userRepoFake struct {
	mu      sync.Mutex
	users   map[int64]*domain.User
	nextID  int64
	deleted []int64
	err     error
}

func newUserRepoFake(users ...*domain.User) *userRepoFake {
	f := &userRepoFake{users: make(map[int64]*domain.User), nextID: 100}
	for _, u := range users {
		copyUser := *u
		f.users[u.ID] = &copyUser
	}
	return f
}

func (f *userRepoFake) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	user.ID = f.nextID
	copyUser := *user
	f.users[user.ID] = &copyUser
	return nil
}

func (f *userRepoFake) find(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			copyUser := *u
			return &copyUser, nil
		}
	}
	return nil, domain.Fail(domain.ErrNotFound, "user not found")
}

func (f *userRepoFake) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.ID == id })
}

func (f *userRepoFake) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Username == username })
}

func (f *userRepoFake) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Email == email })
}

func (f *userRepoFake) UpdateProfile(_ context.Context, id int64, apply func(*domain.User) error) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.Fail(domain.ErrNotFound, "user not found")
	}
	working := *u
	if err := apply(&working); err != nil {
		return nil, err
	}
	f.users[id] = &working
	out := working
	return &out, nil
}

func (f *userRepoFake) DeleteCascade(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return domain.Fail(domain.ErrNotFound, "user not found")
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fileRepoFake struct {
	files     map[int64]domain.File
	nextID    int64
	createErr error
	listedIDs []int64
}

func newFileRepoFake(files ...domain.File) *fileRepoFake {
	f := &fileRepoFake{files: make(map[int64]domain.File), nextID: 500}
	for _, file := range files {
		f.files[file.ID] = file
	}
	return f
}

func (f *fileRepoFake) Create(_ context.Context, file *domain.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	file.ID = f.nextID
	f.files[file.ID] = *file
	return nil
}

func (f *fileRepoFake) GetByID(_ context.Context, id int64) (*domain.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, domain.Fail(domain.ErrNotFound, "file not found")
	}
	return &file, nil
}

func (f *fileRepoFake) ListByIDs(_ context.Context, ids []int64) ([]domain.File, error) {
	f.listedIDs = append([]int64(nil), ids...)
	out := make([]domain.File, 0, len(ids))
	for _, id := range ids {
		if file, ok := f.files[id]; ok {
			out = append(out, file)
		}
	}
	// Database order is unrelated to the request order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fileRepoFake) ListByUser(_ context.Context, userID int64) ([]domain.File, error) {
	out := make([]domain.File, 0)
	for _, file := range f.files {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

type summaryRepoFake struct {
	created []domain.Summary
	stored  map[int64]domain.Summary
	err     error
}

func newSummaryRepoFake(items ...domain.Summary) *summaryRepoFake {
	f := &summaryRepoFake{stored: make(map[int64]domain.Summary)}
	for _, s := range items {
		f.stored[s.ID] = s
	}
	return f
}

func (f *summaryRepoFake) Create(_ context.Context, summary *domain.Summary) error {
	if f.err != nil {
		return f.err
	}
	summary.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *summary)
	f.stored[summary.ID] = *summary
	return nil
}

func (f *summaryRepoFake) GetByID(_ context.Context, id int64) (*domain.Summary, error) {
	s, ok := f.stored[id]
	if !ok {
		return nil, domain.Fail(domain.ErrNotFound, "summary not found")
	}
	return &s, nil
}

func (f *summaryRepoFake) ListByUser(_ context.Context, userID int64) ([]domain.Summary, error) {
	out := make([]domain.Summary, 0)
	for _, s := range f.stored {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// storageFake keeps blobs in memory; a key resolves to "/blobs/<key>".
type storageFake struct {
	blobs      map[string][]byte
	removed    []string
	removedAll []string
	saveErr    error
}

func newStorageFake(keys ...string) *storageFake {
	f := &storageFake{blobs: make(map[string][]byte)}
	for _, key := range keys {
		f.blobs[key] = []byte("%PDF")
	}
	return f
}

func (f *storageFake) save(dir, filename string, body io.Reader) (ports.StoredObject, error) {
	if f.saveErr != nil {
		return ports.StoredObject{}, f.saveErr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return ports.StoredObject{}, err
	}
	key := path.Join(dir, "token_"+filename)
	f.blobs[key] = raw
	return ports.StoredObject{Key: key, Size: int64(len(raw))}, nil
}

func (f *storageFake) SaveDocument(_ context.Context, dir, filename string, body io.Reader, _ int64) (ports.StoredObject, error) {
	return f.save(dir, filename, body)
}

func (f *storageFake) SaveImage(_ context.Context, dir, filename string, body io.Reader, _ int64) (ports.StoredObject, error) {
	return f.save(dir, filename, body)
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.blobs[key]
	if !ok {
		return nil, domain.Fail(domain.ErrNotFound, "file not found in storage")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Resolve(key string) (string, error) {
	return "/blobs/" + key, nil
}

func (f *storageFake) Exists(key string) bool {
	_, ok := f.blobs[key]
	return ok
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	delete(f.blobs, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *storageFake) RemoveAll(_ context.Context, dir string) error {
	for key := range f.blobs {
		if strings.HasPrefix(key, dir+"/") {
			delete(f.blobs, key)
		}
	}
	f.removedAll = append(f.removedAll, dir)
	return nil
}

// extractorFake maps resolved paths to text or errors.
type extractorFake struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *extractorFake) Extract(_ context.Context, p string) (string, error) {
	f.calls = append(f.calls, p)
	if err, ok := f.errs[p]; ok {
		return "", err
	}
	return f.texts[p], nil
}

type summarizerFake struct {
	inputs []string
	out    string
	err    error
}

func (f *summarizerFake) Summarize(_ context.Context, text string) (string, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type eventsFake struct {
	events []ports.SummaryCreatedEvent
	err    error
}

func (f *eventsFake) PublishSummaryCreated(_ context.Context, event ports.SummaryCreatedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type metricsFake struct {
	outcomes []string
	uploads  []int64
}

func (f *metricsFake) ObserveSummary(mode, outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, mode+":"+outcome)
}

func (f *metricsFake) ObserveUpload(bytes int64) {
	f.uploads = append(f.uploads, bytes)
}

type hasherFake struct{}

func (hasherFake) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (hasherFake) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type tokensFake struct {
	issuedFor []int64
	claims    ports.TokenClaims
	verifyErr error
}

func (f *tokensFake) Issue(userID int64, now time.Time) (string, error) {
	f.issuedFor = append(f.issuedFor, userID)
	return "token-for-user", nil
}

func (f *tokensFake) Verify(token string) (ports.TokenClaims, error) {
	if f.verifyErr != nil {
		return ports.TokenClaims{}, f.verifyErr
	}
	if token != "token-for-user" {
		return ports.TokenClaims{}, errors.New("bad token")
	}
	return f.claims, nil
}
