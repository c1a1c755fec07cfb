package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

// DirectoryService registers the users and categories events refer to.
type DirectoryService struct {
	users      UserStore
	categories CategoryStore
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(users UserStore, categories CategoryStore) *DirectoryService {
	return &DirectoryService{users: users, categories: categories}
}

// CreateUser registers a user. Emails are unique.
func (s *DirectoryService) CreateUser(ctx context.Context, req model.NewUserRequest) (*model.User, error) {
	u := &model.User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", u.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateCategory registers a category. Names are unique.
func (s *DirectoryService) CreateCategory(ctx context.Context, req model.NewCategoryRequest) (*model.Category, error) {
	c := &model.Category{ID: uuid.New(), Name: strings.TrimSpace(req.Name)}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("category %q already exists", c.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}
