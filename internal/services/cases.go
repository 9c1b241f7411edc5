package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
)

const (
	maxCaseNameLen        = 50
	maxCaseDescriptionLen = 200
)

// CaseService manages cases and their memberships
type CaseService struct {
	cases   *repositories.CaseRepository
	members *repositories.CaseUserRepository
	users   *repositories.UserRepository
}

// NewCaseService creates a new CaseService
func NewCaseService(cases *repositories.CaseRepository, members *repositories.CaseUserRepository, users *repositories.UserRepository) *CaseService {
	return &CaseService{cases: cases, members: members, users: users}
}

// CaseInput carries the editable case fields
type CaseInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      models.CaseStatus `json:"status"`
}

func (in *CaseInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperrors.Validation("name", "is required")
	}
	if utf8.RuneCountInString(in.Name) > maxCaseNameLen {
		return apperrors.Validation("name", "is too long")
	}
	if utf8.RuneCountInString(in.Description) > maxCaseDescriptionLen {
		return apperrors.Validation("description", "is too long")
	}
	if in.Status == "" {
		in.Status = models.CaseStatusActive
	}
	if !in.Status.Valid() {
		return apperrors.Validation("status", "must be ACTIVE or INACTIVE")
	}
	return nil
}

// requireAction returns the caller's membership of a case when it grants action.
// Invalid ids, missing memberships and missing actions all read as a missing case.
func requireAction(ctx context.Context, members *repositories.CaseUserRepository, caseULID, userULID string, action models.CaseAction) (*models.CaseUser, error) {
	if !models.IsULID(caseULID) {
		return nil, apperrors.Validation("caseId", "must be a ULID")
	}
	membership, err := members.Get(ctx, caseULID, userULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if !membership.Can(action) {
		return nil, apperrors.NotFound("case")
	}
	return membership, nil
}

// Create makes a new case owned by caller, who receives every case action
func (s *CaseService) Create(ctx context.Context, caller *models.User, in CaseInput) (*models.Case, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Case{
		ULID:        models.NewULID(),
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
	}
	owner := &models.CaseUser{
		UserULID:      caller.ULID,
		Actions:       models.AllCaseActions(),
		UserFirstName: caller.FirstName,
		UserLastName:  caller.LastName,
	}
	if err := s.cases.Create(ctx, c, owner); err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	return c, nil
}

// Get returns a case the caller may view
func (s *CaseService) Get(ctx context.Context, caller *models.User, caseULID string) (*models.Case, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionViewCaseDetails); err != nil {
		return nil, err
	}
	return s.load(ctx, caseULID)
}

func (s *CaseService) load(ctx context.Context, caseULID string) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if c == nil {
		return nil, apperrors.NotFound("case")
	}
	return c, nil
}

// Update replaces the editable fields of a case
func (s *CaseService) Update(ctx context.Context, caller *models.User, caseULID string, in CaseInput) (*models.Case, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionUpdateCaseDetails); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, caseULID)
	if err != nil {
		return nil, err
	}
	c.Name, c.Description, c.Status = in.Name, in.Description, in.Status
	if err := s.cases.Update(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("case")
		}
		return nil, &apperrors.InternalError{Err: err}
	}
	return c, nil
}

// MyCases lists the cases the caller is a member of
func (s *CaseService) MyCases(ctx context.Context, caller *models.User) ([]*models.Case, error) {
	memberships, err := s.members.ListByUser(ctx, caller.ULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	cases := make([]*models.Case, 0, len(memberships))
	for _, m := range memberships {
		c, err := s.cases.GetByID(ctx, m.CaseULID)
		if err != nil {
			return nil, &apperrors.InternalError{Err: err}
		}
		if c != nil {
			cases = append(cases, c)
		}
	}
	return cases, nil
}

// Members lists the memberships of a case the caller may view
func (s *CaseService) Members(ctx context.Context, caller *models.User, caseULID string) ([]*models.CaseUser, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionViewCaseDetails); err != nil {
		return nil, err
	}
	members, err := s.members.ListByCase(ctx, caseULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	return members, nil
}

// Invite grants another user actions on a case
func (s *CaseService) Invite(ctx context.Context, caller *models.User, caseULID, userULID string, actions []models.CaseAction) (*models.CaseUser, error) {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionInvite); err != nil {
		return nil, err
	}
	if !models.IsULID(userULID) {
		return nil, apperrors.Validation("userUlid", "must be a ULID")
	}
	if len(actions) == 0 {
		return nil, apperrors.Validation("actions", "at least one action is required")
	}
	for _, a := range actions {
		if !models.ValidCaseAction(a) {
			return nil, apperrors.Validation("actions", "unknown action "+string(a))
		}
	}

	invitee, err := s.users.GetByID(ctx, userULID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: err}
	}
	if invitee == nil {
		return nil, apperrors.NotFound("user")
	}
	c, err := s.load(ctx, caseULID)
	if err != nil {
		return nil, err
	}

	membership := &models.CaseUser{
		CaseULID:      caseULID,
		UserULID:      userULID,
		Actions:       actions,
		CaseName:      c.Name,
		UserFirstName: invitee.FirstName,
		UserLastName:  invitee.LastName,
	}
	if err := s.members.Create(ctx, membership); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, apperrors.Validation("userUlid", "user is already a member of this case")
		}
		return nil, &apperrors.InternalError{Err: err}
	}
	return membership, nil
}

// RemoveMember revokes a user's membership of a case
func (s *CaseService) RemoveMember(ctx context.Context, caller *models.User, caseULID, userULID string) error {
	if _, err := requireAction(ctx, s.members, caseULID, caller.ULID, models.CaseActionInvite); err != nil {
		return err
	}
	if !models.IsULID(userULID) {
		return apperrors.Validation("userId", "must be a ULID")
	}
	if err := s.members.Delete(ctx, caseULID, userULID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("membership")
		}
		return &apperrors.InternalError{Err: err}
	}
	return nil
}
