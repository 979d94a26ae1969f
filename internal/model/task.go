package model

import (
	"encoding/json"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "INPROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusBlocker    TaskStatus = "BLOCKER"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusBlocker,
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocker:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// UserRef is a reference to a user that the server sends either as a bare
// id string or as an embedded user object.
type UserRef struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = UserRef{ID: id}
		return nil
	}

	type plain UserRef
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = UserRef(obj)
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.FirstName == "" && r.LastName == "" && r.Email == "" {
		return json.Marshal(r.ID)
	}
	type plain UserRef
	return json.Marshal(plain(r))
}

func (r UserRef) Name() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		return r.ID
	}
	return name
}

type Task struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     string       `json:"dueDate,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	CreatedBy   *UserRef     `json:"createdBy,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Task) EntityID() string     { return t.ID }
func (t Task) DisplayLabel() string { return t.Title }

// DueDay returns the due date as YYYY-MM-DD regardless of whether the
// server sent a date or a full timestamp.
func (t Task) DueDay() string {
	if len(t.DueDate) >= len(DateLayout) {
		return t.DueDate[:len(DateLayout)]
	}
	return t.DueDate
}

const DateLayout = "2006-01-02"

type CreateTaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     string       `json:"dueDate,omitempty"`
}

// UpdateTaskInput carries only the fields being changed; nil means unchanged.
type UpdateTaskInput struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *string       `json:"dueDate,omitempty"`
}

func (in UpdateTaskInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil &&
		in.Priority == nil && in.DueDate == nil
}

type TaskListResponse struct {
	Message    string         `json:"message,omitempty"`
	Tasks      []Task         `json:"tasks"`
	Pagination TaskPagination `json:"pagination"`
}

type TaskPagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalTasks  int `json:"totalTasks"`
}

func (r TaskListResponse) Page() Page[Task] {
	items := r.Tasks
	if items == nil {
		items = []Task{}
	}
	return Page[Task]{
		Items:     items,
		Total:     r.Pagination.TotalTasks,
		Page:      r.Pagination.CurrentPage,
		PageCount: r.Pagination.TotalPages,
	}
}

func NewTaskListResponse(message string, p Page[Task]) TaskListResponse {
	items := p.Items
	if items == nil {
		items = []Task{}
	}
	return TaskListResponse{
		Message: message,
		Tasks:   items,
		Pagination: TaskPagination{
			CurrentPage: p.Page,
			TotalPages:  p.PageCount,
			TotalTasks:  p.Total,
		},
	}
}
