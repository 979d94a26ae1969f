package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/todo-console/internal/model"
)

const taskColumns = `id, title, description, status, priority, due_date, assigned_to, created_by, completed_at, created_at, updated_at`

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTask(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date, assigned_to, created_by, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), task.Title, task.Description, task.Status, task.Priority,
		dueDate(task.DueDate), nullString(task.AssignedTo), nullString(createdByID(task)), task.CompletedAt,
	)
	return scanTask(row)
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (model.Task, error) {
	if uuid.Validate(id) != nil {
		return model.Task{}, sql.ErrNoRows
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	if uuid.Validate(task.ID) != nil {
		return model.Task{}, sql.ErrNoRows
	}
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
		    assigned_to = $6, completed_at = $7, updated_at = now()
		WHERE id = $8
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, dueDate(task.DueDate),
		nullString(task.AssignedTo), task.CompletedAt, task.ID,
	)
	return scanTask(row)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return sql.ErrNoRows
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
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

func (r *PostgresTaskRepository) List(ctx context.Context, params model.ListParams) (model.Page[model.Task], error) {
	params = params.Normalize()

	var w where
	if params.Search != "" {
		p := likePattern(params.Search)
		w.add("(title ILIKE ? OR description ILIKE ?)", p, p)
	}
	if v := params.Filter("status"); v != "" {
		w.add("status = ?", v)
	}
	if v := params.Filter("priority"); v != "" {
		w.add("priority = ?", v)
	}
	if v := params.Filter("dueDate"); v != "" {
		day, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return model.Page[model.Task]{Items: []model.Task{}, Page: params.Page}, nil
		}
		w.add("due_date = ?", day)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+w.String(), w.args...).Scan(&total); err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + w.String() +
		w.page(orderBy(taskSortColumns, params.SortBy, string(params.SortOrder)), params.Limit, params.Offset())

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return model.Page[model.Task]{}, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return model.Page[model.Task]{
		Items:     tasks,
		Total:     total,
		Page:      params.Page,
		PageCount: model.PageCount(total, params.Limit),
	}, nil
}

func scanTask(row scannable) (model.Task, error) {
	var (
		t           model.Task
		due         sql.NullTime
		assignedTo  sql.NullString
		createdBy   sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&due, &assignedTo, &createdBy, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	if due.Valid {
		t.DueDate = due.Time.Format(model.DateLayout)
	}
	t.AssignedTo = assignedTo.String
	if createdBy.Valid {
		t.CreatedBy = &model.UserRef{ID: createdBy.String}
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}

func dueDate(s string) sql.NullTime {
	day, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: day, Valid: true}
}

func createdByID(t model.Task) string {
	if t.CreatedBy == nil {
		return ""
	}
	return t.CreatedBy.ID
}

var _ TaskRepository = (*PostgresTaskRepository)(nil)
