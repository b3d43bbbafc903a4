package users

import (
	"context"
	"errors"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
)

// Service covers the back-office user console and the admin predicate consulted by middleware.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, q UserListQuery) (*UserList, error)
	SetRole(ctx context.Context, actorID, id uuid.UUID, role Role) (*User, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, q UserListQuery) (*UserList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &UserList{Users: list, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// SetRole changes a user's role. An admin cannot demote themselves.
func (s *service) SetRole(ctx context.Context, actorID, id uuid.UUID, role Role) (*User, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("role", "must be user or admin")
	}
	if actorID == id && role != RoleAdmin {
		return nil, apperrors.Validation("role", "you cannot remove your own admin role")
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperrors.Validation("id", "you cannot delete your own account from the console")
	}
	return s.repo.Delete(ctx, id)
}

// IsAdmin reports whether the user currently holds the admin role. Unknown users are not admins.
func (s *service) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}
