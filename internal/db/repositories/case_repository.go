// case_repository.go implements CaseRepository. A case and its creator's membership are
// written in one transaction so a case never exists without an owner.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

type caseItem struct {
	db.ItemKeys
	ULID        string    `dynamodbav:"ulid"`
	Name        string    `dynamodbav:"name"`
	Description string    `dynamodbav:"description,omitempty"`
	Status      string    `dynamodbav:"status"`
	ObjectCount int       `dynamodbav:"objectCount"`
	CreatedAt   time.Time `dynamodbav:"created"`
	UpdatedAt   time.Time `dynamodbav:"updated"`
}

func newCaseItem(c *models.Case) *caseItem {
	return &caseItem{
		ItemKeys: db.ItemKeys{
			PK:         db.CasePK(c.ULID),
			SK:         db.CaseSK(),
			GSI1PK:     db.CaseListPK(),
			GSI1SK:     db.CasePK(c.ULID),
			EntityType: db.EntityCase,
		},
		ULID:        c.ULID,
		Name:        c.Name,
		Description: c.Description,
		Status:      string(c.Status),
		ObjectCount: c.ObjectCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (i *caseItem) toModel() *models.Case {
	return &models.Case{
		ULID:        i.ULID,
		Name:        i.Name,
		Description: i.Description,
		Status:      models.CaseStatus(i.Status),
		ObjectCount: i.ObjectCount,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// CaseRepository handles case persistence
type CaseRepository struct {
	table *db.Table
}

// NewCaseRepository creates a new CaseRepository
func NewCaseRepository(table *db.Table) *CaseRepository {
	return &CaseRepository{table: table}
}

// Create writes a new case together with the creator's membership
func (r *CaseRepository) Create(ctx context.Context, c *models.Case, owner *models.CaseUser) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	owner.CaseULID = c.ULID
	owner.CaseName = c.Name
	owner.CreatedAt, owner.UpdatedAt = now, now

	casePut, err := transactPut(r.table, newCaseItem(c), condNotExists)
	if err != nil {
		return err
	}
	memberPut, err := transactPut(r.table, newCaseUserItem(owner), condNotExists)
	if err != nil {
		return err
	}
	_, err = r.table.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{casePut, memberPut},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetByID retrieves a case, returning nil when it does not exist
func (r *CaseRepository) GetByID(ctx context.Context, caseULID string) (*models.Case, error) {
	var item caseItem
	found, err := getItem(ctx, r.table, db.CasePK(caseULID), db.CaseSK(), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	if !found {
		return nil, nil
	}
	return item.toModel(), nil
}

// Update overwrites an existing case's mutable fields
func (r *CaseRepository) Update(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now().UTC()
	if err := putItem(ctx, r.table, newCaseItem(c), condExists); err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

// ListAll returns every case in id order
func (r *CaseRepository) ListAll(ctx context.Context) ([]*models.Case, error) {
	raw, err := queryPartition(ctx, r.table, true, db.CaseListPK(), db.CaseListPK())
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	var items []caseItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cases: %w", err)
	}
	cases := make([]*models.Case, 0, len(items))
	for i := range items {
		cases = append(cases, items[i].toModel())
	}
	return cases, nil
}
