// audit_job_repository.go stores the job records that tie an audit id handed to a
// client to the log-backend query it started.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

type auditJobItem struct {
	db.ItemKeys
	ULID             string    `dynamodbav:"ulid"`
	QueryID          string    `dynamodbav:"queryId"`
	AuditType        string    `dynamodbav:"auditType"`
	ResourceID       string    `dynamodbav:"resourceId"`
	ParentResourceID string    `dynamodbav:"parentResourceId,omitempty"`
	CreatedAt        time.Time `dynamodbav:"created"`
}

func (i *auditJobItem) toModel() *models.AuditJob {
	return &models.AuditJob{
		ULID:             i.ULID,
		QueryID:          i.QueryID,
		AuditType:        models.AuditType(i.AuditType),
		ResourceID:       i.ResourceID,
		ParentResourceID: i.ParentResourceID,
		CreatedAt:        i.CreatedAt,
	}
}

// AuditJobRepository handles audit job persistence
type AuditJobRepository struct {
	table *db.Table
}

// NewAuditJobRepository creates a new AuditJobRepository
func NewAuditJobRepository(table *db.Table) *AuditJobRepository {
	return &AuditJobRepository{table: table}
}

// Create writes a new job. Jobs are immutable, so an existing id is an error.
func (r *AuditJobRepository) Create(ctx context.Context, job *models.AuditJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	item := &auditJobItem{
		ItemKeys: db.ItemKeys{
			PK:         db.AuditJobPK(job.ULID),
			SK:         db.AuditJobSK(),
			EntityType: db.EntityAuditJob,
		},
		ULID:             job.ULID,
		QueryID:          job.QueryID,
		AuditType:        string(job.AuditType),
		ResourceID:       job.ResourceID,
		ParentResourceID: job.ParentResourceID,
		CreatedAt:        job.CreatedAt,
	}
	if err := putItem(ctx, r.table, item, condNotExists); err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create audit job: %w", err)
	}
	return nil
}

// GetByID retrieves a job, returning nil when it does not exist
func (r *AuditJobRepository) GetByID(ctx context.Context, jobULID string) (*models.AuditJob, error) {
	var item auditJobItem
	found, err := getItem(ctx, r.table, db.AuditJobPK(jobULID), db.AuditJobSK(), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit job: %w", err)
	}
	if !found {
		return nil, nil
	}
	if item.EntityType != db.EntityAuditJob {
		return nil, errors.New("item at audit job key has unexpected entity type " + item.EntityType)
	}
	return item.toModel(), nil
}
