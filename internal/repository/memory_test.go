package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	testclock "k8s.io/utils/clock/testing"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
)

func seedTasks(t *testing.T, n int) (*repository.MemoryTaskRepository, []model.Task) {
	t.Helper()
	clk := testclock.NewFakePassiveClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := repository.NewMemoryTask(clk)

	statuses := model.TaskStatuses
	var tasks []model.Task
	for i := range n {
		task, err := repo.Create(context.Background(), model.Task{
			Title:       fmt.Sprintf("Task %02d", i+1),
			Description: fmt.Sprintf("description %d", i+1),
			Status:      statuses[i%len(statuses)],
			Priority:    model.TaskPriorityLow,
			DueDate:     fmt.Sprintf("2026-02-%02d", i%3+1),
			CreatedBy:   &model.UserRef{ID: "u1", FirstName: "dropped"},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		tasks = append(tasks, task)
		clk.SetTime(clk.Now().Add(time.Minute))
	}
	return repo, tasks
}

func TestMemoryTask_ListDefaultsNewestFirst(t *testing.T) {
	repo, tasks := seedTasks(t, 12)

	page, err := repo.List(context.Background(), model.ListParams{Page: 1, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Total != 12 || page.PageCount != 3 || page.Page != 1 {
		t.Errorf("got total=%d pageCount=%d page=%d, want 12/3/1", page.Total, page.PageCount, page.Page)
	}
	if len(page.Items) != 5 {
		t.Fatalf("got %d items, want 5", len(page.Items))
	}
	if page.Items[0].ID != tasks[11].ID {
		t.Errorf("first item %s, want newest %s", page.Items[0].Title, tasks[11].Title)
	}
	if page.Items[0].CreatedBy == nil || page.Items[0].CreatedBy.FirstName != "" {
		t.Errorf("CreatedBy should hold only the id, got %+v", page.Items[0].CreatedBy)
	}
}

func TestMemoryTask_ListQueries(t *testing.T) {
	repo, _ := seedTasks(t, 12)

	tests := []struct {
		name      string
		params    model.ListParams
		wantTotal int
		wantFirst string
	}{
		{"search title", model.ListParams{Search: "task 1"}, 3, "Task 12"},
		{"search is case insensitive", model.ListParams{Search: "DESCRIPTION 7"}, 1, "Task 07"},
		{"status filter", model.ListParams{Filters: map[string]string{"status": "BLOCKER"}}, 3, "Task 12"},
		{"due date filter", model.ListParams{Filters: map[string]string{"dueDate": "2026-02-01"}}, 4, "Task 10"},
		{"sort title asc", model.ListParams{SortBy: "title", SortOrder: model.SortAsc}, 12, "Task 01"},
		{"sort title desc", model.ListParams{SortBy: "title", SortOrder: model.SortDesc}, 12, "Task 12"},
		{"unknown sort falls back", model.ListParams{SortBy: "password"}, 12, "Task 12"},
		{"page past the end", model.ListParams{Page: 9}, 12, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("got total %d, want %d", page.Total, tt.wantTotal)
			}
			first := ""
			if len(page.Items) > 0 {
				first = page.Items[0].Title
			}
			if first != tt.wantFirst {
				t.Errorf("got first %q, want %q", first, tt.wantFirst)
			}
		})
	}
}

func TestMemoryTask_UpdateAndDelete(t *testing.T) {
	repo, tasks := seedTasks(t, 2)
	ctx := context.Background()

	changed := tasks[0]
	changed.Title = "Renamed"
	changed.CreatedBy = nil
	got, err := repo.Update(ctx, changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Renamed" || got.CreatedBy == nil || !got.CreatedAt.Equal(tasks[0].CreatedAt) {
		t.Errorf("update lost immutable fields: %+v", got)
	}

	if err := repo.Delete(ctx, tasks[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, tasks[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID after delete: got %v, want sql.ErrNoRows", err)
	}
	if err := repo.Delete(ctx, tasks[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete: got %v, want sql.ErrNoRows", err)
	}
	if _, err := repo.Update(ctx, model.Task{ID: "missing"}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("update missing: got %v, want sql.ErrNoRows", err)
	}
}

func TestMemoryUser_EmailIsUnique(t *testing.T) {
	repo := repository.NewMemoryUser(testclock.NewFakePassiveClock(time.Now()))
	ctx := context.Background()

	ada, err := repo.Create(ctx, model.User{FirstName: "Ada", Email: "Ada@Example.com", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ada.Email != "ada@example.com" {
		t.Errorf("email not normalized: %s", ada.Email)
	}
	if _, err := repo.Create(ctx, model.User{Email: "ADA@example.com"}); !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Errorf("duplicate create: got %v, want ErrDuplicateEmail", err)
	}

	bob, _ := repo.Create(ctx, model.User{FirstName: "Bob", Email: "bob@example.com", Role: model.RoleUser})
	bob.Email = "ada@example.com"
	if _, err := repo.Update(ctx, bob); !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Errorf("duplicate update: got %v, want ErrDuplicateEmail", err)
	}

	got, err := repo.GetByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil || got.ID != ada.ID {
		t.Errorf("GetByEmail: got %+v, %v", got, err)
	}
}

func TestMemoryUser_GetOrCreate(t *testing.T) {
	repo := repository.NewMemoryUser(testclock.NewFakePassiveClock(time.Now()))
	ctx := context.Background()

	existing, _ := repo.Create(ctx, model.User{FirstName: "Ada", Email: "ada@example.com", Role: model.RoleAdmin})

	linked, err := repo.GetOrCreate(ctx, "sub-ada", "ada@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if linked.ID != existing.ID || linked.Role != model.RoleAdmin {
		t.Errorf("expected existing user to be linked, got %+v", linked)
	}

	created, err := repo.GetOrCreate(ctx, "sub-new", "new@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created.Role != model.RoleUser {
		t.Errorf("got role %s, want USER", created.Role)
	}

	bySub, err := repo.GetByCognitoSub(ctx, "sub-ada")
	if err != nil || bySub.ID != existing.ID {
		t.Errorf("GetByCognitoSub: got %+v, %v", bySub, err)
	}
}

func TestMemoryUser_ListSearchAndRole(t *testing.T) {
	clk := testclock.NewFakePassiveClock(time.Now())
	repo := repository.NewMemoryUser(clk)
	ctx := context.Background()
	for _, u := range []model.User{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: model.RoleAdmin},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Role: model.RoleUser},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Role: model.RoleUser},
	} {
		if _, err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		clk.SetTime(clk.Now().Add(time.Second))
	}

	tests := []struct {
		name   string
		params model.ListParams
		want   []string
	}{
		{"search email domain", model.ListParams{Search: "example"}, []string{"Alan", "Ada"}},
		{"search last name", model.ListParams{Search: "hop"}, []string{"Grace"}},
		{"role filter sorted", model.ListParams{Filters: map[string]string{"role": "USER"}, SortBy: "firstName", SortOrder: model.SortAsc}, []string{"Alan", "Grace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, u := range page.Items {
				got = append(got, u.FirstName)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
