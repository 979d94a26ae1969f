package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/service"
)

func TestUserMe(t *testing.T) {
	admin := sampleUser()
	admin.ID = "admin-1"
	admin.Role = model.RoleAdmin
	federated := sampleUser()
	federated.ID = "user-2"
	federated.CognitoSub = "sub-2"

	repo := &mockUserRepo{users: map[string]model.User{
		"user-1":  sampleUser(),
		"user-2":  federated,
		"admin-1": admin,
	}}
	svc := service.NewUserService(repo, fastHasher)

	tests := []struct {
		name      string
		caller    string
		requested string
		wantID    string
		wantErr   error
	}{
		{"self by id", "user-1", "user-1", "user-1", nil},
		{"self by cognito sub", "user-2", "sub-2", "user-2", nil},
		{"other user forbidden", "user-1", "user-2", "", service.ErrForbidden},
		{"admin views other", "admin-1", "user-1", "user-1", nil},
		{"admin views missing", "admin-1", "nobody", "", service.ErrNotFound},
		{"unknown caller", "ghost", "ghost", "", service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Me(context.Background(), tt.caller, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("got %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestUserCreate(t *testing.T) {
	valid := model.CreateUserInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "Secret1!",
		Role:      model.RoleUser,
	}

	tests := []struct {
		name    string
		input   model.CreateUserInput
		repoErr error
		wantErr error
	}{
		{"success", valid, nil, nil},
		{"weak password", func() model.CreateUserInput { in := valid; in.Password = "password"; return in }(), nil, service.ErrInvalidInput},
		{"bad role", func() model.CreateUserInput { in := valid; in.Role = "ROOT"; return in }(), nil, service.ErrInvalidInput},
		{"duplicate email", valid, repository.ErrDuplicateEmail, service.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved model.User
			repo := &mockUserRepo{
				createFn: func(_ context.Context, u model.User) (model.User, error) {
					if tt.repoErr != nil {
						return model.User{}, tt.repoErr
					}
					saved = u
					u.ID = "user-9"
					return u, nil
				},
			}

			got, err := service.NewUserService(repo, fastHasher).Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != "user-9" {
				t.Errorf("got id %s", got.ID)
			}
			if ok, _ := fastHasher.Matches(saved.PasswordHash, valid.Password); !ok {
				t.Error("stored hash does not match the password")
			}
		})
	}
}

func TestUserUpdate_Password(t *testing.T) {
	hash, err := fastHasher.Hash("Original1!")
	if err != nil {
		t.Fatal(err)
	}
	existing := sampleUser()
	existing.PasswordHash = hash

	tests := []struct {
		name         string
		input        model.UpdateUserInput
		wantPassword string
		wantErr      error
	}{
		{"name only keeps password", model.UpdateUserInput{FirstName: ptr("Augusta")}, "Original1!", nil},
		{"blank password keeps password", model.UpdateUserInput{Password: ptr("  ")}, "Original1!", nil},
		{"new password", model.UpdateUserInput{Password: ptr("Changed2@")}, "Changed2@", nil},
		{"weak new password", model.UpdateUserInput{Password: ptr("weak")}, "", service.ErrInvalidInput},
		{"nothing to update", model.UpdateUserInput{}, "", service.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved model.User
			repo := &mockUserRepo{
				users: map[string]model.User{"user-1": existing},
				updateFn: func(_ context.Context, u model.User) (model.User, error) {
					saved = u
					return u, nil
				},
			}

			_, err := service.NewUserService(repo, fastHasher).Update(context.Background(), "user-1", tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok, _ := fastHasher.Matches(saved.PasswordHash, tt.wantPassword); !ok {
				t.Errorf("stored hash does not match %q", tt.wantPassword)
			}
		})
	}
}

func TestUserDelete(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		repoErr error
		wantErr error
	}{
		{"success", "admin-1", nil, nil},
		{"self delete", "user-1", nil, service.ErrForbidden},
		{"not found", "admin-1", sql.ErrNoRows, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &mockUserRepo{
				deleteFn: func(context.Context, string) error {
					called = true
					return tt.repoErr
				},
			}

			err := service.NewUserService(repo, fastHasher).Delete(context.Background(), tt.caller, "user-1")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.caller == "user-1" && called {
				t.Error("repository should not be called for a self delete")
			}
		})
	}
}
