package tui

import (
	"github.com/jaekwang-park/todo-console/internal/model"
)

var TaskColumns = []Column[model.Task]{
	{Title: "Title", Width: 28, SortKey: "title", Value: func(t model.Task) string { return t.Title }},
	{Title: "Status", Width: 12, SortKey: "status", Value: func(t model.Task) string { return string(t.Status) }},
	{Title: "Priority", Width: 10, SortKey: "priority", Value: func(t model.Task) string { return string(t.Priority) }},
	{Title: "Due", Width: 12, SortKey: "dueDate", Value: func(t model.Task) string { return t.DueDay() }},
	{Title: "Created by", Width: 18, Value: func(t model.Task) string {
		if t.CreatedBy == nil {
			return ""
		}
		return t.CreatedBy.Name()
	}},
	{Title: "Created", Width: 12, SortKey: "createdAt", Value: func(t model.Task) string {
		return t.CreatedAt.Format(model.DateLayout)
	}},
}

var TaskFilter = Filter{Name: "status", Values: statuses()}

var UserColumns = []Column[model.User]{
	{Title: "First name", Width: 16, SortKey: "firstName", Value: func(u model.User) string { return u.FirstName }},
	{Title: "Last name", Width: 14, SortKey: "lastName", Value: func(u model.User) string { return u.LastName }},
	{Title: "Email", Width: 28, SortKey: "email", Value: func(u model.User) string { return u.Email }},
	{Title: "Role", Width: 8, SortKey: "role", Value: func(u model.User) string { return string(u.Role) }},
	{Title: "Created", Width: 12, SortKey: "createdAt", Value: func(u model.User) string {
		return u.CreatedAt.Format(model.DateLayout)
	}},
}

var UserFilter = Filter{Name: "role", Values: []string{string(model.RoleAdmin), string(model.RoleUser)}}

func statuses() []string {
	out := make([]string, len(model.TaskStatuses))
	for i, s := range model.TaskStatuses {
		out[i] = string(s)
	}
	return out
}
