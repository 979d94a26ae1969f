package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/validate"
)

type TaskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	clock clock.PassiveClock
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, clk clock.PassiveClock) *TaskService {
	return &TaskService{tasks: tasks, users: users, clock: clk}
}

func (s *TaskService) List(ctx context.Context, params model.ListParams) (model.Page[model.Task], error) {
	page, err := s.tasks.List(ctx, params)
	if err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	s.embedCreators(ctx, page.Items)
	return page, nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return s.embedCreator(ctx, task), nil
}

func (s *TaskService) Create(ctx context.Context, callerID string, input model.CreateTaskInput) (model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validate.Task(input); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedBy:   &model.UserRef{ID: callerID},
	}
	s.trackCompletion(&task, "")

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return s.embedCreator(ctx, created), nil
}

// Update applies the non-nil fields of input. The merged task must still
// pass validation.
func (s *TaskService) Update(ctx context.Context, id string, input model.UpdateTaskInput) (model.Task, error) {
	if input.IsEmpty() {
		return model.Task{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	existing, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for update: %w", err)
	}
	previous := existing.Status

	if input.Title != nil {
		existing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		existing.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		existing.Status = *input.Status
	}
	if input.Priority != nil {
		existing.Priority = *input.Priority
	}
	if input.DueDate != nil {
		existing.DueDate = strings.TrimSpace(*input.DueDate)
	}

	if err := validate.Task(model.CreateTaskInput{
		Title:       existing.Title,
		Description: existing.Description,
		Status:      existing.Status,
		Priority:    existing.Priority,
		DueDate:     existing.DueDay(),
	}); err != nil {
		return model.Task{}, err
	}
	s.trackCompletion(&existing, previous)

	updated, err := s.tasks.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return s.embedCreator(ctx, updated), nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// trackCompletion stamps CompletedAt when a task enters COMPLETED and
// clears it when it leaves.
func (s *TaskService) trackCompletion(t *model.Task, previous model.TaskStatus) {
	switch {
	case t.Status == model.TaskStatusCompleted && previous != model.TaskStatusCompleted:
		now := s.clock.Now().UTC()
		t.CompletedAt = &now
	case t.Status != model.TaskStatusCompleted:
		t.CompletedAt = nil
	}
}

func (s *TaskService) embedCreator(ctx context.Context, t model.Task) model.Task {
	tasks := []model.Task{t}
	s.embedCreators(ctx, tasks)
	return tasks[0]
}

// embedCreators replaces creator ids with the creator's name and email.
// Creators that no longer exist stay as bare ids.
func (s *TaskService) embedCreators(ctx context.Context, tasks []model.Task) {
	refs := map[string]*model.UserRef{}
	for i := range tasks {
		if tasks[i].CreatedBy == nil || tasks[i].CreatedBy.ID == "" {
			continue
		}
		id := tasks[i].CreatedBy.ID
		ref, seen := refs[id]
		if !seen {
			if u, err := s.users.GetByID(ctx, id); err == nil {
				ref = u.Ref()
			} else if !errors.Is(err, sql.ErrNoRows) {
				slog.WarnContext(ctx, "failed to load task creator", "user_id", id, "error", err)
			}
			refs[id] = ref
		}
		if ref != nil {
			r := *ref
			tasks[i].CreatedBy = &r
		}
	}
}
