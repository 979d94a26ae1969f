package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/todo-console/internal/model"
)

const userColumns = `id, first_name, last_name, email, role, password_hash, cognito_sub, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUser(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `
		INSERT INTO users (id, first_name, last_name, email, role, password_hash, cognito_sub)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), user.FirstName, user.LastName, strings.ToLower(user.Email), user.Role,
		user.PasswordHash, nullString(user.CognitoSub),
	)
	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return model.User{}, ErrDuplicateEmail
	}
	return u, err
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	if uuid.Validate(id) != nil {
		return model.User{}, sql.ErrNoRows
	}
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

func (r *PostgresUserRepository) GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE cognito_sub = $1`, cognitoSub))
}

func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	query := `
		INSERT INTO users (id, first_name, last_name, email, role, cognito_sub)
		VALUES ($1, '', '', $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET cognito_sub = EXCLUDED.cognito_sub, updated_at = now()
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), strings.ToLower(email), model.RoleUser, cognitoSub)
	return scanUser(row)
}

func (r *PostgresUserRepository) Update(ctx context.Context, user model.User) (model.User, error) {
	if uuid.Validate(user.ID) != nil {
		return model.User{}, sql.ErrNoRows
	}
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, role = $4, password_hash = $5, updated_at = now()
		WHERE id = $6
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, strings.ToLower(user.Email), user.Role, user.PasswordHash, user.ID,
	)
	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return model.User{}, ErrDuplicateEmail
	}
	return u, err
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return sql.ErrNoRows
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresUserRepository) List(ctx context.Context, params model.ListParams) (model.Page[model.User], error) {
	params = params.Normalize()

	var w where
	if params.Search != "" {
		p := likePattern(params.Search)
		w.add("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", p, p, p)
	}
	if v := params.Filter("role"); v != "" {
		w.add("role = ?", v)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		return model.Page[model.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.String() +
		w.page(orderBy(userSortColumns, params.SortBy, string(params.SortOrder)), params.Limit, params.Offset())

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return model.Page[model.User]{}, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.User]{}, fmt.Errorf("failed to iterate users: %w", err)
	}

	return model.Page[model.User]{
		Items:     users,
		Total:     total,
		Page:      params.Page,
		PageCount: model.PageCount(total, params.Limit),
	}, nil
}

func scanUser(row scannable) (model.User, error) {
	var (
		u   model.User
		sub sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role,
		&u.PasswordHash, &sub, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CognitoSub = sub.String
	return u, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
