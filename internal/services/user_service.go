package services

import (
	"context"
	"errors"
	"strings"

	"dealdesk/internal/authz"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

const minPasswordLength = 6

type UserService interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
	now  Clock
}

func NewUserService(repo repositories.UserRepository, auth AuthService, now Clock) UserService {
	return &userService{repo: repo, auth: auth, now: now}
}

func (s *userService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = authz.RoleRep
	}
	switch {
	case name == "":
		return nil, models.Invalid("name is required")
	case !strings.Contains(email, "@"):
		return nil, models.Invalid("a valid email is required")
	case !authz.ValidRole(role):
		return nil, models.Invalid("role must be one of admin, manager, rep")
	case len(req.Password) < minPasswordLength:
		return nil, models.Invalid("password must be at least 6 characters")
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return models.Invalid("email already registered")
	}
	return nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if user.Name = strings.TrimSpace(*patch.Name); user.Name == "" {
			return nil, models.Invalid("name cannot be empty")
		}
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if !strings.Contains(email, "@") {
			return nil, models.Invalid("a valid email is required")
		}
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if patch.Role != nil {
		if !authz.ValidRole(*patch.Role) {
			return nil, models.Invalid("role must be one of admin, manager, rep")
		}
		user.Role = *patch.Role
	}
	if patch.Password != nil && len(*patch.Password) < minPasswordLength {
		return nil, models.Invalid("password must be at least 6 characters")
	}

	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	if patch.Password != nil {
		hash, err := s.auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, user.ID, hash, user.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
