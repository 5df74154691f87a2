package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
)

type UserService struct {
	repo     *repository.UserRepository
	validate *validator.Validate
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo, validate: validator.New()}
}

type CreateUserInput struct {
	FullName string
	Email    string
	Phone    string
	Role     model.Role
}

// Create registers a user. Callers gate who may do this: the HTTP route is
// admin-only and the CLI runs with database access.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, input.Email)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}

	user := &model.User{
		FullName: name,
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		Role:     input.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Find loads a user without a permission check.
func (s *UserService) Find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Get returns the user to an admin or to the user themselves.
func (s *UserService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.User, error) {
	if !principal.IsAdmin() && principal.UserID != id {
		return nil, ErrPermissionDenied
	}
	return s.Find(ctx, id)
}

func (s *UserService) List(ctx context.Context, principal model.Principal, role model.Role) ([]model.User, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.repo.List(ctx, role)
}

// Delete removes a user who owns no property and has no rental history.
func (s *UserService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if principal.UserID == id {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrInvalidInput)
	}
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: user has properties or rentals", ErrConflict)
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
