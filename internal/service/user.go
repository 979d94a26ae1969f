package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/validate"
)

type UserService struct {
	users  repository.UserRepository
	hasher PasswordHasher
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func (s *UserService) List(ctx context.Context, params model.ListParams) (model.Page[model.User], error) {
	page, err := s.users.List(ctx, params)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return page, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Me returns the user identified by requested, which must be the caller
// (by id or federated subject) unless the caller is an admin.
func (s *UserService) Me(ctx context.Context, callerID, requested string) (model.User, error) {
	caller, err := s.GetByID(ctx, callerID)
	if err != nil {
		return model.User{}, err
	}
	if requested == caller.ID || (caller.CognitoSub != "" && requested == caller.CognitoSub) {
		return caller, nil
	}
	if caller.Role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("%w: you can only view your own profile", ErrForbidden)
	}
	return s.GetByID(ctx, requested)
}

func (s *UserService) Create(ctx context.Context, input model.CreateUserInput) (model.User, error) {
	input = trimUser(input)
	if err := validate.NewUser(input); err != nil {
		return model.User{}, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return model.User{}, err
	}

	created, err := s.users.Create(ctx, model.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Role:         input.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.User{}, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields of input. A nil or blank password
// keeps the current one.
func (s *UserService) Update(ctx context.Context, id string, input model.UpdateUserInput) (model.User, error) {
	if input.IsEmpty() {
		return model.User{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	merged := model.CreateUserInput{
		FirstName: existing.FirstName,
		LastName:  existing.LastName,
		Email:     existing.Email,
		Role:      existing.Role,
	}
	if input.FirstName != nil {
		merged.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		merged.LastName = *input.LastName
	}
	if input.Email != nil {
		merged.Email = *input.Email
	}
	if input.Role != nil {
		merged.Role = *input.Role
	}
	if input.Password != nil {
		merged.Password = *input.Password
	}
	merged = trimUser(merged)
	if err := validate.UserUpdate(merged); err != nil {
		return model.User{}, err
	}

	existing.FirstName = merged.FirstName
	existing.LastName = merged.LastName
	existing.Email = merged.Email
	existing.Role = merged.Role
	if strings.TrimSpace(merged.Password) != "" {
		if existing.PasswordHash, err = s.hasher.Hash(merged.Password); err != nil {
			return model.User{}, err
		}
	}

	updated, err := s.users.Update(ctx, existing)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return model.User{}, ErrNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.User{}, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user. Admins cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return fmt.Errorf("%w: you cannot delete your own account", ErrForbidden)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func trimUser(in model.CreateUserInput) model.CreateUserInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}
