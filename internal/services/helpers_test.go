package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/dynamotest"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
	"github.com/digital-evidence-archive/dea-backend/internal/storage"
)

var errDB = errors.New("db error")

type fixture struct {
	fake    *dynamotest.Fake
	users   *repositories.UserRepository
	cases   *repositories.CaseRepository
	members *repositories.CaseUserRepository
	files   *repositories.CaseFileRepository
	store   *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := dynamotest.New()
	table := db.NewTable(fake, "dea-test", "GSI1")
	return &fixture{
		fake:    fake,
		users:   repositories.NewUserRepository(table),
		cases:   repositories.NewCaseRepository(table),
		members: repositories.NewCaseUserRepository(table),
		files:   repositories.NewCaseFileRepository(table),
		store:   &fakeStore{},
	}
}

func (f *fixture) caseService() *CaseService {
	return NewCaseService(f.cases, f.members, f.users)
}

func (f *fixture) fileService() *FileService {
	return NewFileService(f.cases, f.members, f.files, f.store)
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{ULID: models.NewULID(), TokenID: "sub-" + name, Username: name, FirstName: name}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func (f *fixture) ownedCase(t *testing.T, owner *models.User) *models.Case {
	t.Helper()
	c, err := f.caseService().Create(context.Background(), owner, CaseInput{Name: "Case of " + owner.Username})
	if err != nil {
		t.Fatalf("creating case: %v", err)
	}
	return c
}

type fakeStore struct {
	createErr   error
	completeErr error
	aborted     []string
	completed   []string
}

func (s *fakeStore) CreateUpload(_ context.Context, key, _ string, size int64) (*storage.Upload, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	n, err := storage.PartCount(size, 1024)
	if err != nil {
		return nil, err
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://store/" + key
	}
	return &storage.Upload{UploadID: "upload-" + key, PartURLs: urls, PartSize: 1024}, nil
}

func (s *fakeStore) CompleteUpload(_ context.Context, key, _ string) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed = append(s.completed, key)
	return nil
}

func (s *fakeStore) AbortUpload(_ context.Context, key, _ string) error {
	s.aborted = append(s.aborted, key)
	return nil
}

func (s *fakeStore) DownloadURL(_ context.Context, key, _ string) (string, time.Time, error) {
	return "https://store/" + key + "?sig", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), nil
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if got := apperrors.HTTPStatus(err); got != want {
		t.Errorf("HTTPStatus(%v) = %d, want %d", err, got, want)
	}
}
