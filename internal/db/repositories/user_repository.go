// user_repository.go implements UserRepository. Users are registered on first login and
// found again by the identity provider subject through GSI1.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

type userItem struct {
	db.ItemKeys
	ULID      string    `dynamodbav:"ulid"`
	TokenID   string    `dynamodbav:"tokenId"`
	Username  string    `dynamodbav:"username"`
	FirstName string    `dynamodbav:"firstName"`
	LastName  string    `dynamodbav:"lastName"`
	CreatedAt time.Time `dynamodbav:"created"`
	UpdatedAt time.Time `dynamodbav:"updated"`
}

func newUserItem(u *models.User) *userItem {
	return &userItem{
		ItemKeys: db.ItemKeys{
			PK:         db.UserPK(u.ULID),
			SK:         db.UserSK(),
			GSI1PK:     db.TokenGSI1PK(u.TokenID),
			GSI1SK:     db.UserSK(),
			EntityType: db.EntityUser,
		},
		ULID:      u.ULID,
		TokenID:   u.TokenID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (i *userItem) toModel() *models.User {
	return &models.User{
		ULID:      i.ULID,
		TokenID:   i.TokenID,
		Username:  i.Username,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// UserRepository handles user persistence
type UserRepository struct {
	table *db.Table
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(table *db.Table) *UserRepository {
	return &UserRepository{table: table}
}

// Create registers a new user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := putItem(ctx, r.table, newUserItem(u), condNotExists); err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update overwrites an existing user's profile fields
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	if err := putItem(ctx, r.table, newUserItem(u), condExists); err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// GetByID retrieves a user, returning nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, userULID string) (*models.User, error) {
	var item userItem
	found, err := getItem(ctx, r.table, db.UserPK(userULID), db.UserSK(), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return item.toModel(), nil
}

// GetByTokenID retrieves the user registered for an identity provider subject
func (r *UserRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.User, error) {
	raw, err := queryPartition(ctx, r.table, true, db.TokenGSI1PK(tokenID), db.UserSK())
	if err != nil {
		return nil, fmt.Errorf("failed to get user by token id: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(raw[0], &item); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return item.toModel(), nil
}
