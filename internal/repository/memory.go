package repository

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/model"
)

// MemoryTaskRepository keeps tasks in process memory. Used for local
// development and tests.
type MemoryTaskRepository struct {
	clock clock.PassiveClock

	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewMemoryTask(clk clock.PassiveClock) *MemoryTaskRepository {
	return &MemoryTaskRepository{clock: clk, tasks: map[string]model.Task{}}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task model.Task) (model.Task, error) {
	now := r.clock.Now().UTC()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.CreatedBy != nil {
		task.CreatedBy = &model.UserRef{ID: task.CreatedBy.ID}
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.mu.Unlock()
	return task, nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, id string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, sql.ErrNoRows
	}
	return t, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok {
		return model.Task{}, sql.ErrNoRows
	}
	task.CreatedAt = existing.CreatedAt
	task.CreatedBy = existing.CreatedBy
	task.UpdatedAt = r.clock.Now().UTC()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) List(_ context.Context, params model.ListParams) (model.Page[model.Task], error) {
	params = params.Normalize()
	search := strings.ToLower(params.Search)
	status, priority, due := params.Filter("status"), params.Filter("priority"), params.Filter("dueDate")

	r.mu.RLock()
	matched := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		switch {
		case search != "" && !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search):
		case status != "" && string(t.Status) != status:
		case priority != "" && string(t.Priority) != priority:
		case due != "" && t.DueDay() != due:
		default:
			matched = append(matched, t)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, taskOrder(params.SortBy, params.SortOrder))
	return paginate(matched, params), nil
}

func taskOrder(sortBy string, order model.SortOrder) func(a, b model.Task) int {
	var key func(a, b model.Task) int
	switch sortBy {
	case "title":
		key = func(a, b model.Task) int { return compareFold(a.Title, b.Title) }
	case "status":
		key = func(a, b model.Task) int { return cmp.Compare(a.Status, b.Status) }
	case "priority":
		key = func(a, b model.Task) int { return cmp.Compare(a.Priority, b.Priority) }
	case "dueDate":
		key = func(a, b model.Task) int { return cmp.Compare(a.DueDay(), b.DueDay()) }
	case "updatedAt":
		key = func(a, b model.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "createdAt":
		key = func(a, b model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		key = func(a, b model.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
		order = model.SortAsc
	}
	return func(a, b model.Task) int {
		c := key(a, b)
		if order == model.SortDesc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	}
}

// MemoryUserRepository keeps users in process memory.
type MemoryUserRepository struct {
	clock clock.PassiveClock

	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUser(clk clock.PassiveClock) *MemoryUserRepository {
	return &MemoryUserRepository{clock: clk, users: map[string]model.User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(user)
}

func (r *MemoryUserRepository) createLocked(user model.User) (model.User, error) {
	user.Email = strings.ToLower(user.Email)
	if _, taken := r.findLocked(func(u model.User) bool { return u.Email == user.Email }); taken {
		return model.User{}, ErrDuplicateEmail
	}
	now := r.clock.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) findLocked(match func(model.User) bool) (model.User, bool) {
	for _, u := range r.users {
		if match(u) {
			return u, true
		}
	}
	return model.User{}, false
}

func (r *MemoryUserRepository) find(match func(model.User) bool) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.findLocked(match)
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(email)
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByCognitoSub(_ context.Context, cognitoSub string) (model.User, error) {
	return r.find(func(u model.User) bool { return u.CognitoSub != "" && u.CognitoSub == cognitoSub })
}

func (r *MemoryUserRepository) GetOrCreate(_ context.Context, cognitoSub, email string) (model.User, error) {
	email = strings.ToLower(email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.findLocked(func(u model.User) bool { return u.Email == email }); ok {
		u.CognitoSub = cognitoSub
		u.UpdatedAt = r.clock.Now().UTC()
		r.users[u.ID] = u
		return u, nil
	}
	return r.createLocked(model.User{Email: email, Role: model.RoleUser, CognitoSub: cognitoSub})
}

func (r *MemoryUserRepository) Update(_ context.Context, user model.User) (model.User, error) {
	user.Email = strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	if _, taken := r.findLocked(func(u model.User) bool { return u.Email == user.Email && u.ID != user.ID }); taken {
		return model.User{}, ErrDuplicateEmail
	}
	user.CognitoSub = existing.CognitoSub
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.clock.Now().UTC()
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context, params model.ListParams) (model.Page[model.User], error) {
	params = params.Normalize()
	search := strings.ToLower(params.Search)
	role := params.Filter("role")

	r.mu.RLock()
	matched := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		switch {
		case search != "" && !strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(u.Email, search):
		case role != "" && string(u.Role) != role:
		default:
			matched = append(matched, u)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, userOrder(params.SortBy, params.SortOrder))
	return paginate(matched, params), nil
}

func userOrder(sortBy string, order model.SortOrder) func(a, b model.User) int {
	var key func(a, b model.User) int
	switch sortBy {
	case "firstName":
		key = func(a, b model.User) int { return compareFold(a.FirstName, b.FirstName) }
	case "lastName":
		key = func(a, b model.User) int { return compareFold(a.LastName, b.LastName) }
	case "email":
		key = func(a, b model.User) int { return strings.Compare(a.Email, b.Email) }
	case "role":
		key = func(a, b model.User) int { return cmp.Compare(a.Role, b.Role) }
	case "updatedAt":
		key = func(a, b model.User) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "createdAt":
		key = func(a, b model.User) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		key = func(a, b model.User) int { return b.CreatedAt.Compare(a.CreatedAt) }
		order = model.SortAsc
	}
	return func(a, b model.User) int {
		c := key(a, b)
		if order == model.SortDesc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func paginate[T any](items []T, params model.ListParams) model.Page[T] {
	page := model.Page[T]{
		Items:     []T{},
		Total:     len(items),
		Page:      params.Page,
		PageCount: model.PageCount(len(items), params.Limit),
	}
	if start := params.Offset(); start < len(items) {
		page.Items = items[start:min(start+params.Limit, len(items))]
	}
	return page
}

var (
	_ TaskRepository = (*MemoryTaskRepository)(nil)
	_ UserRepository = (*MemoryUserRepository)(nil)
)
