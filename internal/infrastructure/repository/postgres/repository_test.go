package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

var userCols = []string{"id", "full_name", "username", "email", "password_hash", "description", "profile_image", "created_at", "updated_at"}

func TestUserCreateMapsUniqueViolationToConflict(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ana", "ana", "ana@example.com", "hash", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := repo.Create(context.Background(), &domain.User{FullName: "Ana", Username: "ana", Email: "ana@example.com", PasswordHash: "hash"})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserCreateAssignsID(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	user := &domain.User{FullName: "Ana", Username: "ana", Email: "ana@example.com", PasswordHash: "hash"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("expected id 7, got %d", user.ID)
	}
	if user.CreatedAt.IsZero() || !user.UpdatedAt.Equal(user.CreatedAt) {
		t.Fatalf("expected timestamps to be set, got %v / %v", user.CreatedAt, user.UpdatedAt)
	}
	expectMet(t, mock)
}

func TestUserGetByUsernameReturnsNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, full_name, username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserUpdateProfileAppliesChangesInTransaction(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, full_name, username").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(3), "Old", "ana", "ana@example.com", "hash", "", "", created, created))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(3), "New", "bio", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := repo.UpdateProfile(context.Background(), 3, func(u *domain.User) error {
		u.FullName = "New"
		u.Description = "bio"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.FullName != "New" || user.Description != "bio" || user.Username != "ana" {
		t.Fatalf("unexpected user: %+v", user)
	}
	expectMet(t, mock)
}

func TestUserUpdateProfileRollsBackWhenApplyFails(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, full_name, username").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(3), "Old", "ana", "ana@example.com", "hash", "", "", now, now))
	mock.ExpectRollback()

	applyErr := errors.New("image rejected")
	_, err := repo.UpdateProfile(context.Background(), 3, func(*domain.User) error { return applyErr })
	if !errors.Is(err, applyErr) {
		t.Fatalf("expected apply error, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserDeleteCascadeRemovesDependentsFirst(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM summaries").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM files").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteCascade(context.Background(), 9); err != nil {
		t.Fatalf("DeleteCascade() error = %v", err)
	}
	expectMet(t, mock)
}

func TestUserDeleteCascadeReturnsNotFoundAndRollsBack(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM summaries").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM files").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 9)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

var fileCols = []string{"id", "file_name", "file_path", "file_size", "upload_date", "user_id"}

func TestFileGetByIDReturnsNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewFileRepository(db)

	mock.ExpectQuery("SELECT id, file_name, file_path").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestFileListByIDsBindsEveryID(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewFileRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE id IN \(\$1,\$2\)`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow(int64(1), "a.pdf", "1/a_a.pdf", int64(10), now, int64(5)).
			AddRow(int64(3), "b.pdf", "1/b_b.pdf", int64(20), now, int64(5)))

	files, err := repo.ListByIDs(context.Background(), []int64{3, 1})
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	expectMet(t, mock)
}

func TestFileListByIDsEmptySkipsQuery(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewFileRepository(db)

	files, err := repo.ListByIDs(context.Background(), nil)
	if err != nil || len(files) != 0 {
		t.Fatalf("expected empty result, got %v, %v", files, err)
	}
	expectMet(t, mock)
}

func TestFileCreateAssignsID(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewFileRepository(db)

	mock.ExpectQuery("INSERT INTO files").
		WithArgs("report.pdf", "5/abc_report.pdf", int64(123), sqlmock.AnyArg(), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	file := &domain.File{FileName: "report.pdf", FilePath: "5/abc_report.pdf", FileSize: 123, UserID: 5}
	if err := repo.Create(context.Background(), file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if file.ID != 11 || file.UploadDate.IsZero() {
		t.Fatalf("unexpected file: %+v", file)
	}
	expectMet(t, mock)
}

func TestSummaryCreateRejectsEmptyFileIDs(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSummaryRepository(db)

	err := repo.Create(context.Background(), &domain.Summary{SummaryText: "x", UserID: 1})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	expectMet(t, mock)
}

func TestSummaryListByUserScansRows(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSummaryRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("FROM summaries").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_ids", "summary_text", "is_consolidated", "created_at", "user_id"}).
			AddRow(int64(8), "3,1", "joint", true, now, int64(2)).
			AddRow(int64(7), "3", "single", false, now.Add(-time.Hour), int64(2)))

	items, err := repo.ListByUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(items) != 2 || items[0].FileIDs != "3,1" || !items[0].IsConsolidated || items[1].IsConsolidated {
		t.Fatalf("unexpected summaries: %+v", items)
	}
	expectMet(t, mock)
}

func TestSummaryGetByIDReturnsNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSummaryRepository(db)

	mock.ExpectQuery("FROM summaries WHERE id").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 1)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestSummaryGetByIDRejectsMalformedFileIDs(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewSummaryRepository(db)

	mock.ExpectQuery("FROM summaries WHERE id").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_ids", "summary_text", "is_consolidated", "created_at", "user_id"}).
			AddRow(int64(4), "3,x", "text", true, time.Now().UTC(), int64(2)))

	_, err := repo.GetByID(context.Background(), 4)
	if !domain.IsKind(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("malformed row must not look like a missing one: %v", err)
	}
	expectMet(t, mock)
}

func TestFileCreateWrapsDriverErrorAsStorage(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewFileRepository(db)

	driverErr := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO files").WillReturnError(driverErr)

	err := repo.Create(context.Background(), &domain.File{FileName: "a.pdf", FilePath: "1/a.pdf", UserID: 1})
	if !domain.IsKind(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected driver error in chain, got %v", err)
	}
	expectMet(t, mock)
}
