// case_file_repository.go implements CaseFileRepository. Completing an upload flips the
// file to ACTIVE and bumps the case's object count in the same transaction.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

type caseFileItem struct {
	db.ItemKeys
	ULID          string    `dynamodbav:"ulid"`
	CaseULID      string    `dynamodbav:"caseUlid"`
	FileName      string    `dynamodbav:"fileName"`
	FilePath      string    `dynamodbav:"filePath"`
	ContentType   string    `dynamodbav:"contentType"`
	FileSizeBytes int64     `dynamodbav:"fileSizeBytes"`
	SHA256Hash    string    `dynamodbav:"sha256Hash,omitempty"`
	UploadID      string    `dynamodbav:"uploadId,omitempty"`
	Status        string    `dynamodbav:"status"`
	CreatedBy     string    `dynamodbav:"createdBy"`
	CreatedAt     time.Time `dynamodbav:"created"`
	UpdatedAt     time.Time `dynamodbav:"updated"`
}

func newCaseFileItem(f *models.CaseFile) *caseFileItem {
	return &caseFileItem{
		ItemKeys: db.ItemKeys{
			PK:         db.CasePK(f.CaseULID),
			SK:         db.CaseFileSK(f.ULID),
			EntityType: db.EntityCaseFile,
		},
		ULID:          f.ULID,
		CaseULID:      f.CaseULID,
		FileName:      f.FileName,
		FilePath:      f.FilePath,
		ContentType:   f.ContentType,
		FileSizeBytes: f.FileSizeBytes,
		SHA256Hash:    f.SHA256Hash,
		UploadID:      f.UploadID,
		Status:        string(f.Status),
		CreatedBy:     f.CreatedBy,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func (i *caseFileItem) toModel() *models.CaseFile {
	return &models.CaseFile{
		ULID:          i.ULID,
		CaseULID:      i.CaseULID,
		FileName:      i.FileName,
		FilePath:      i.FilePath,
		ContentType:   i.ContentType,
		FileSizeBytes: i.FileSizeBytes,
		SHA256Hash:    i.SHA256Hash,
		UploadID:      i.UploadID,
		Status:        models.CaseFileStatus(i.Status),
		CreatedBy:     i.CreatedBy,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// CaseFileRepository handles case file persistence
type CaseFileRepository struct {
	table *db.Table
}

// NewCaseFileRepository creates a new CaseFileRepository
func NewCaseFileRepository(table *db.Table) *CaseFileRepository {
	return &CaseFileRepository{table: table}
}

// Create records a pending upload
func (r *CaseFileRepository) Create(ctx context.Context, f *models.CaseFile) error {
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if err := putItem(ctx, r.table, newCaseFileItem(f), condNotExists); err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create case file: %w", err)
	}
	return nil
}

// Get retrieves a file of a case, returning nil when it does not exist
func (r *CaseFileRepository) Get(ctx context.Context, caseULID, fileULID string) (*models.CaseFile, error) {
	var item caseFileItem
	found, err := getItem(ctx, r.table, db.CasePK(caseULID), db.CaseFileSK(fileULID), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get case file: %w", err)
	}
	if !found {
		return nil, nil
	}
	return item.toModel(), nil
}

// Complete marks f ACTIVE and stores c with its incremented object count. Both items
// must already exist.
func (r *CaseFileRepository) Complete(ctx context.Context, f *models.CaseFile, c *models.Case) error {
	now := time.Now().UTC()
	f.Status = models.CaseFileStatusActive
	f.UploadID = ""
	f.UpdatedAt = now
	c.ObjectCount++
	c.UpdatedAt = now

	filePut, err := transactPut(r.table, newCaseFileItem(f), condExists)
	if err != nil {
		return err
	}
	casePut, err := transactPut(r.table, newCaseItem(c), condExists)
	if err != nil {
		return err
	}
	_, err = r.table.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{filePut, casePut},
	})
	if err != nil {
		c.ObjectCount--
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to complete case file: %w", err)
	}
	return nil
}
