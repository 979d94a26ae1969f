package service_test

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jaekwang-park/todo-console/internal/cognito"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/service"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var fastHasher = service.PasswordHasher{Cost: bcrypt.MinCost}

type mockTaskRepo struct {
	createFn  func(ctx context.Context, task model.Task) (model.Task, error)
	getByIDFn func(ctx context.Context, id string) (model.Task, error)
	updateFn  func(ctx context.Context, task model.Task) (model.Task, error)
	deleteFn  func(ctx context.Context, id string) error
	listFn    func(ctx context.Context, params model.ListParams) (model.Page[model.Task], error)
}

func (m *mockTaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	return m.createFn(ctx, task)
}
func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (model.Task, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockTaskRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	return m.updateFn(ctx, task)
}
func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}
func (m *mockTaskRepo) List(ctx context.Context, params model.ListParams) (model.Page[model.Task], error) {
	return m.listFn(ctx, params)
}

// mockUserRepo answers GetByID from users unless getByIDFn is set.
type mockUserRepo struct {
	users map[string]model.User

	createFn      func(ctx context.Context, user model.User) (model.User, error)
	getByIDFn     func(ctx context.Context, id string) (model.User, error)
	getByEmailFn  func(ctx context.Context, email string) (model.User, error)
	getOrCreateFn func(ctx context.Context, cognitoSub, email string) (model.User, error)
	updateFn      func(ctx context.Context, user model.User) (model.User, error)
	deleteFn      func(ctx context.Context, id string) error
	listFn        func(ctx context.Context, params model.ListParams) (model.Page[model.User], error)
}

func (m *mockUserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	return m.createFn(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	u, ok := m.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return m.getByEmailFn(ctx, email)
}
func (m *mockUserRepo) GetByCognitoSub(_ context.Context, cognitoSub string) (model.User, error) {
	for _, u := range m.users {
		if u.CognitoSub == cognitoSub {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}
func (m *mockUserRepo) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	return m.getOrCreateFn(ctx, cognitoSub, email)
}
func (m *mockUserRepo) Update(ctx context.Context, user model.User) (model.User, error) {
	return m.updateFn(ctx, user)
}
func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}
func (m *mockUserRepo) List(ctx context.Context, params model.ListParams) (model.Page[model.User], error) {
	return m.listFn(ctx, params)
}

type mockCognitoClient struct {
	signUpFn func(ctx context.Context, input cognito.SignUpInput) (cognito.SignUpOutput, error)
	loginFn  func(ctx context.Context, input cognito.LoginInput) (cognito.AuthOutput, error)
}

func (m *mockCognitoClient) SignUp(ctx context.Context, input cognito.SignUpInput) (cognito.SignUpOutput, error) {
	return m.signUpFn(ctx, input)
}
func (m *mockCognitoClient) Login(ctx context.Context, input cognito.LoginInput) (cognito.AuthOutput, error) {
	return m.loginFn(ctx, input)
}

func ptr[T any](v T) *T { return &v }

func sampleUser() model.User {
	return model.User{
		ID:        "user-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleTask() model.Task {
	return model.Task{
		ID:          "task-1",
		Title:       "Buy groceries",
		Description: "Milk, eggs, bread",
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityMedium,
		DueDate:     "2025-02-01",
		CreatedBy:   &model.UserRef{ID: "user-1"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
