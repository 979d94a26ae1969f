package repository

import (
	"context"

	"github.com/jaekwang-park/todo-console/internal/model"
)

// TaskRepository stores tasks. Lookups of missing rows return sql.ErrNoRows.
type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params model.ListParams) (model.Page[model.Task], error)
}

// Task filters accepted by List.
var TaskFilters = []string{"status", "priority", "dueDate"}

// taskSortColumns whitelists sortBy values.
var taskSortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"dueDate":   "due_date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}
