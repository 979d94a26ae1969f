package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	testclock "k8s.io/utils/clock/testing"

	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/service"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	users  *repository.MemoryUserRepository
	tasks  *repository.MemoryTaskRepository
	auth   *service.AuthService
	taskSv *service.TaskService
	userSv *service.UserService
	admin  model.User
	member model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := testclock.NewFakePassiveClock(now)
	hasher := service.PasswordHasher{Cost: bcrypt.MinCost}
	f := &fixture{
		users: repository.NewMemoryUser(clk),
		tasks: repository.NewMemoryTask(clk),
	}
	f.auth = service.NewAuthService(f.users, nil, service.NewTokens([]byte("k"), 0, clk), hasher)
	f.taskSv = service.NewTaskService(f.tasks, f.users, clk)
	f.userSv = service.NewUserService(f.users, hasher)

	var err error
	f.admin, err = f.userSv.Create(context.Background(), model.CreateUserInput{
		FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", Password: "Admin123!", Role: model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	f.member, err = f.userSv.Create(context.Background(), model.CreateUserInput{
		FirstName: "Bob", LastName: "Member", Email: "bob@example.com", Password: "Member123!", Role: model.RoleUser,
	})
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return f
}

// request builds a request carrying the given caller and path values.
func request(method, target string, body any, caller model.User, pathValues ...string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if caller.ID != "" {
		req = req.WithContext(middleware.WithPrincipal(req.Context(),
			middleware.Principal{UserID: caller.ID, Role: caller.Role}))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}
