package audit

import (
	"context"
	"errors"
	"sync"

	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// fakeBackend replays a scripted sequence of statuses for every query it starts
type fakeBackend struct {
	mu       sync.Mutex
	startErr error
	startID  string
	started  []Query
	statuses []QueryStatus // one per poll; the last repeats
	polls    int
	pages    [][]Row // returned in order once Complete, chained by NextToken
	tokens   []string
	// pageStatus, when set, is reported by every continuation page
	pageStatus QueryStatus
}

func (f *fakeBackend) StartQuery(_ context.Context, q Query) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, q)
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.startID, nil
}

func (f *fakeBackend) GetQueryResults(_ context.Context, _ string, nextToken string) (*QueryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, nextToken)

	if nextToken == "" {
		status := StatusComplete
		if len(f.statuses) > 0 {
			i := f.polls
			if i >= len(f.statuses) {
				i = len(f.statuses) - 1
			}
			status = f.statuses[i]
		}
		f.polls++
		if status != StatusComplete {
			return &QueryPage{Status: status}, nil
		}
	}

	idx := 0
	if nextToken != "" {
		for i := range f.pages {
			if nextToken == pageToken(i) {
				idx = i
			}
		}
	}
	page := &QueryPage{Status: StatusComplete}
	if nextToken != "" && f.pageStatus != "" {
		page.Status = f.pageStatus
	}
	if idx < len(f.pages) {
		page.Rows = f.pages[idx]
	}
	if idx+1 < len(f.pages) {
		page.NextToken = pageToken(idx + 1)
	}
	return page, nil
}

func pageToken(i int) string { return "page-" + string(rune('0'+i)) }

// memJobs is an in-memory JobStore
type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*models.AuditJob
	err  error
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[string]*models.AuditJob{}} }

func (m *memJobs) Create(_ context.Context, job *models.AuditJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.jobs[job.ULID]; ok {
		return errors.New("duplicate")
	}
	cp := *job
	m.jobs[job.ULID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*models.AuditJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

// memMembers, memFiles and memUsers back the guard
type memMembers map[string]*models.CaseUser

func (m memMembers) Get(_ context.Context, caseULID, userULID string) (*models.CaseUser, error) {
	return m[caseULID+"/"+userULID], nil
}

func (m memMembers) grant(caseULID, userULID string, actions ...models.CaseAction) {
	m[caseULID+"/"+userULID] = &models.CaseUser{CaseULID: caseULID, UserULID: userULID, Actions: actions}
}

type memFiles map[string]*models.CaseFile

func (m memFiles) Get(_ context.Context, caseULID, fileULID string) (*models.CaseFile, error) {
	return m[caseULID+"/"+fileULID], nil
}

type memUsers map[string]*models.User

func (m memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return m[id], nil
}
