package repository

import (
	"context"
	"errors"

	"github.com/jaekwang-park/todo-console/internal/model"
)

var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository stores users. Lookups of missing rows return sql.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error)
	// GetOrCreate links a federated identity to a user, creating a USER
	// with the given email when none exists.
	GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params model.ListParams) (model.Page[model.User], error)
}

var UserFilters = []string{"role"}

var userSortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}
