package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/a1media/agency-dashboard/internal"
)

type Service struct {
	repo Repository
}

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, internal.NewValidationFieldError("role", fmt.Sprintf("unknown role %q", filter.Role), internal.ErrCodeInvalidRole)
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
