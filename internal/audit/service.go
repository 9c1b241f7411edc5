package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/telemetry"
)

// JobStore persists audit jobs
type JobStore interface {
	Create(ctx context.Context, job *models.AuditJob) error
	GetByID(ctx context.Context, jobULID string) (*models.AuditJob, error)
}

// Options controls what audit queries cover
type Options struct {
	AuditLogGroup      string
	TrailLogGroup      string
	Lookback           time.Duration
	QueryLimit         int32
	ExcludeAuditEvents bool
}

// OptionsFromConfig derives Options from the audit config section
func OptionsFromConfig(cfg *config.AuditConfig) Options {
	return Options{
		AuditLogGroup:      cfg.LogGroupName,
		TrailLogGroup:      cfg.TrailLogGroupName,
		Lookback:           cfg.Lookback(),
		QueryLimit:         int32(cfg.QueryLimit),
		ExcludeAuditEvents: cfg.ExcludeAuditEvents,
	}
}

// Result is the outcome of one poll. CSV is set only when Status is Complete.
type Result struct {
	Status QueryStatus
	CSV    []byte
	Rows   int
}

// Service starts audit queries and collects their results
type Service struct {
	backend LogQueryBackend
	jobs    JobStore
	opts    Options
	now     func() time.Time
}

// NewService creates a Service
func NewService(backend LogQueryBackend, jobs JobStore, opts Options) *Service {
	return &Service{backend: backend, jobs: jobs, opts: opts, now: time.Now}
}

// StartAudit submits the query for scope and records the job. The returned job's ULID
// is the audit id handed to the client.
func (s *Service) StartAudit(ctx context.Context, scope Scope) (*models.AuditJob, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	auditType := string(scope.Type)

	queryID, err := s.backend.StartQuery(ctx, buildQuery(scope, s.opts, s.now()))
	if err != nil {
		telemetry.AuditQueriesStartedTotal.WithLabelValues(auditType, "failed").Inc()
		return nil, &apperrors.QueryStartError{Err: err}
	}
	if queryID == "" {
		telemetry.AuditQueriesStartedTotal.WithLabelValues(auditType, "failed").Inc()
		return nil, &apperrors.QueryStartError{}
	}

	job := &models.AuditJob{
		ULID:             models.NewULID(),
		QueryID:          queryID,
		AuditType:        scope.Type,
		ResourceID:       scope.ResourceID,
		ParentResourceID: scope.ParentResourceID,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		telemetry.AuditQueriesStartedTotal.WithLabelValues(auditType, "failed").Inc()
		return nil, &apperrors.InternalError{Err: fmt.Errorf("failed to record audit job: %w", err)}
	}

	telemetry.AuditQueriesStartedTotal.WithLabelValues(auditType, "started").Inc()
	slog.InfoContext(ctx, "audit query started",
		"audit_id", job.ULID, "audit_type", auditType, "resource_id", job.ResourceID)
	return job, nil
}

// GetResults polls job's query once. While the query runs only the status comes back;
// once Complete every page is collected and rendered; any other terminal status is a
// QueryExecutionError and no CSV is produced.
func (s *Service) GetResults(ctx context.Context, job *models.AuditJob) (*Result, error) {
	page, err := s.backend.GetQueryResults(ctx, job.QueryID, "")
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	telemetry.AuditQueryPollsTotal.WithLabelValues(string(job.AuditType), string(page.Status)).Inc()

	switch page.Status {
	case StatusScheduled, StatusRunning, StatusUnknown:
		return &Result{Status: page.Status}, nil
	case StatusFailed, StatusCancelled, StatusTimeout:
		slog.WarnContext(ctx, "audit query did not complete",
			"audit_id", job.ULID, "status", string(page.Status))
		return nil, &apperrors.QueryExecutionError{Status: string(page.Status)}
	case StatusComplete:
		// collected below
	default:
		return &Result{Status: page.Status}, nil
	}

	rows := page.Rows
	for token := page.NextToken; token != ""; token = page.NextToken {
		page, err = s.backend.GetQueryResults(ctx, job.QueryID, token)
		if err != nil {
			return nil, &apperrors.InternalError{Err: err}
		}
		if page.Status != StatusComplete {
			return nil, &apperrors.InternalError{Err: fmt.Errorf("audit %s: continuation page reported %s", job.ULID, page.Status)}
		}
		rows = append(rows, page.Rows...)
	}

	entries := EntriesFromRows(rows, s.opts.ExcludeAuditEvents)
	body, err := RenderCSV(entries)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	telemetry.AuditRowsExportedTotal.WithLabelValues(string(job.AuditType)).Add(float64(len(entries)))
	return &Result{Status: StatusComplete, CSV: body, Rows: len(entries)}, nil
}
