// case_user_repository.go implements CaseUserRepository. Memberships live in the case
// partition and are mirrored onto GSI1 under the member's user key so that both
// "members of a case" and "cases of a user" are single-partition queries.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

type caseUserItem struct {
	db.ItemKeys
	CaseULID      string    `dynamodbav:"caseUlid"`
	UserULID      string    `dynamodbav:"userUlid"`
	Actions       []string  `dynamodbav:"actions"`
	CaseName      string    `dynamodbav:"caseName"`
	UserFirstName string    `dynamodbav:"userFirstName"`
	UserLastName  string    `dynamodbav:"userLastName"`
	CreatedAt     time.Time `dynamodbav:"created"`
	UpdatedAt     time.Time `dynamodbav:"updated"`
}

func newCaseUserItem(cu *models.CaseUser) *caseUserItem {
	actions := make([]string, 0, len(cu.Actions))
	for _, a := range cu.Actions {
		actions = append(actions, string(a))
	}
	return &caseUserItem{
		ItemKeys: db.ItemKeys{
			PK:         db.CasePK(cu.CaseULID),
			SK:         db.CaseUserSK(cu.UserULID),
			GSI1PK:     db.UserPK(cu.UserULID),
			GSI1SK:     db.CasePK(cu.CaseULID),
			EntityType: db.EntityCaseUser,
		},
		CaseULID:      cu.CaseULID,
		UserULID:      cu.UserULID,
		Actions:       actions,
		CaseName:      cu.CaseName,
		UserFirstName: cu.UserFirstName,
		UserLastName:  cu.UserLastName,
		CreatedAt:     cu.CreatedAt,
		UpdatedAt:     cu.UpdatedAt,
	}
}

func (i *caseUserItem) toModel() *models.CaseUser {
	actions := make([]models.CaseAction, 0, len(i.Actions))
	for _, a := range i.Actions {
		actions = append(actions, models.CaseAction(a))
	}
	return &models.CaseUser{
		CaseULID:      i.CaseULID,
		UserULID:      i.UserULID,
		Actions:       actions,
		CaseName:      i.CaseName,
		UserFirstName: i.UserFirstName,
		UserLastName:  i.UserLastName,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// CaseUserRepository handles case membership persistence
type CaseUserRepository struct {
	table *db.Table
}

// NewCaseUserRepository creates a new CaseUserRepository
func NewCaseUserRepository(table *db.Table) *CaseUserRepository {
	return &CaseUserRepository{table: table}
}

// Create adds a membership; an existing membership for the same pair is an error
func (r *CaseUserRepository) Create(ctx context.Context, cu *models.CaseUser) error {
	now := time.Now().UTC()
	cu.CreatedAt, cu.UpdatedAt = now, now
	if err := putItem(ctx, r.table, newCaseUserItem(cu), condNotExists); err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create case membership: %w", err)
	}
	return nil
}

// Get retrieves the membership of userULID in caseULID, returning nil when there is none
func (r *CaseUserRepository) Get(ctx context.Context, caseULID, userULID string) (*models.CaseUser, error) {
	var item caseUserItem
	found, err := getItem(ctx, r.table, db.CasePK(caseULID), db.CaseUserSK(userULID), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get case membership: %w", err)
	}
	if !found {
		return nil, nil
	}
	return item.toModel(), nil
}

// Delete removes a membership
func (r *CaseUserRepository) Delete(ctx context.Context, caseULID, userULID string) error {
	_, err := r.table.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table.Name),
		Key:                 primaryKey(db.CasePK(caseULID), db.CaseUserSK(userULID)),
		ConditionExpression: aws.String(condExists),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete case membership: %w", err)
	}
	return nil
}

// ListByCase returns every member of a case
func (r *CaseUserRepository) ListByCase(ctx context.Context, caseULID string) ([]*models.CaseUser, error) {
	raw, err := queryPartition(ctx, r.table, false, db.CasePK(caseULID), db.CaseUserSKPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list case members: %w", err)
	}
	return decodeCaseUsers(raw)
}

// ListByUser returns every membership a user holds
func (r *CaseUserRepository) ListByUser(ctx context.Context, userULID string) ([]*models.CaseUser, error) {
	raw, err := queryPartition(ctx, r.table, true, db.UserPK(userULID), db.CaseListPK())
	if err != nil {
		return nil, fmt.Errorf("failed to list user memberships: %w", err)
	}
	return decodeCaseUsers(raw)
}

func decodeCaseUsers(raw []map[string]types.AttributeValue) ([]*models.CaseUser, error) {
	var items []caseUserItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode case memberships: %w", err)
	}
	out := make([]*models.CaseUser, 0, len(items))
	for i := range items {
		out = append(out, items[i].toModel())
	}
	return out, nil
}
