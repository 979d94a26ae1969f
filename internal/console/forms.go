package console

import (
	"strings"

	"github.com/jaekwang-park/todo-console/internal/model"
)

// TaskForm holds the values of the task create/edit form.
type TaskForm struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     string
}

// TaskFormFrom pre-fills the edit form for t.
func TaskFormFrom(t model.Task) TaskForm {
	return TaskForm{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDay(),
	}
}

func (f TaskForm) Input() model.CreateTaskInput {
	return model.CreateTaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Status:      f.Status,
		Priority:    f.Priority,
		DueDate:     strings.TrimSpace(f.DueDate),
	}
}

// DiffTask returns the fields of f that differ from current.
func DiffTask(current model.Task, f TaskForm) model.UpdateTaskInput {
	in := f.Input()
	var out model.UpdateTaskInput
	if in.Title != current.Title {
		out.Title = &in.Title
	}
	if in.Description != current.Description {
		out.Description = &in.Description
	}
	if in.Status != current.Status {
		out.Status = &in.Status
	}
	if in.Priority != current.Priority {
		out.Priority = &in.Priority
	}
	if in.DueDate != current.DueDay() {
		out.DueDate = &in.DueDate
	}
	return out
}

// UserForm holds the values of the user create/edit form. On edit a blank
// Password leaves the password unchanged.
type UserForm struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
}

// UserFormFrom pre-fills the edit form for u. The password is never shown.
func UserFormFrom(u model.User) UserForm {
	return UserForm{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func (f UserForm) Input() model.CreateUserInput {
	return model.CreateUserInput{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		Role:      f.Role,
	}
}

// DiffUser returns the fields of f that differ from current. A blank
// password is never sent.
func DiffUser(current model.User, f UserForm) model.UpdateUserInput {
	in := f.Input()
	var out model.UpdateUserInput
	if in.FirstName != current.FirstName {
		out.FirstName = &in.FirstName
	}
	if in.LastName != current.LastName {
		out.LastName = &in.LastName
	}
	if in.Email != current.Email {
		out.Email = &in.Email
	}
	if in.Role != current.Role {
		out.Role = &in.Role
	}
	if strings.TrimSpace(in.Password) != "" {
		out.Password = &in.Password
	}
	return out
}
