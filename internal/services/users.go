// Package services implements the business logic that coordinates across repositories and
// external systems. Each service enforces case membership itself and reports a missing
// membership as a NotFoundError, so callers never learn whether a case they cannot see
// exists.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
)

// UserService registers identity provider subjects as archive users
type UserService struct {
	users *repositories.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(users *repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// Resolve returns the archive user for id, registering it on first sight. Name
// changes made at the identity provider are copied onto the stored user.
func (s *UserService) Resolve(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil || id.TokenID == "" {
		return nil, apperrors.Validation("token", "identity has no subject")
	}

	user, err := s.users.GetByTokenID(ctx, id.TokenID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if user == nil {
		return s.register(ctx, id)
	}

	if user.FirstName != id.FirstName || user.LastName != id.LastName || user.Username != id.Username {
		user.FirstName, user.LastName, user.Username = id.FirstName, id.LastName, id.Username
		if err := s.users.Update(ctx, user); err != nil {
			return nil, &apperrors.InternalError{Err: err}
		}
	}
	return user, nil
}

func (s *UserService) register(ctx context.Context, id *auth.Identity) (*models.User, error) {
	user := &models.User{
		ULID:      models.NewULID(),
		TokenID:   id.TokenID,
		Username:  id.Username,
		FirstName: id.FirstName,
		LastName:  id.LastName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, &apperrors.InternalError{Err: fmt.Errorf("registering user: %w", err)}
	}
	slog.Info("registered user", "user_id", user.ULID, "username", user.Username)
	return user, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, userULID string) (*models.User, error) {
	if !models.IsULID(userULID) {
		return nil, apperrors.Validation("userId", "must be a ULID")
	}
	user, err := s.users.GetByID(ctx, userULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}
