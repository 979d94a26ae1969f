// Package devapitest runs the reference API in-process for tests.
package devapitest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	testclock "k8s.io/utils/clock/testing"

	todohttp "github.com/jaekwang-park/todo-console/internal/http"
	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/service"
)

// Seeded admin credentials.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "Admin123!"
)

var signingKey = []byte("devapitest-signing-key")

type resolver struct {
	users repository.UserRepository
}

func (r resolver) ResolveUser(ctx context.Context, _ middleware.TokenSource, subject string) (middleware.Principal, error) {
	u, err := r.users.GetByID(ctx, subject)
	if err != nil {
		return middleware.Principal{}, middleware.ErrUserNotFound
	}
	return middleware.Principal{UserID: u.ID, Role: u.Role}, nil
}

// NewHandler returns the full middleware chain over memory stores with one
// seeded admin.
func NewHandler(t testing.TB) http.Handler {
	t.Helper()
	clk := testclock.NewFakeClock(time.Now())
	users := repository.NewMemoryUser(clk)
	tasks := repository.NewMemoryTask(clk)
	hasher := service.PasswordHasher{Cost: bcrypt.MinCost}

	userSvc := service.NewUserService(users, hasher)
	if _, err := userSvc.Create(context.Background(), model.CreateUserInput{
		FirstName: "Ada", LastName: "Admin", Email: AdminEmail, Password: AdminPassword, Role: model.RoleAdmin,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	metrics := middleware.NewMetrics(clk)
	auth, err := middleware.NewAuth(middleware.AuthConfig{
		SigningKey:   signingKey,
		LocalIssuer:  service.TokenIssuer,
		UserResolver: resolver{users: users},
		Clock:        clk,
	})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}

	router := todohttp.NewRouter(todohttp.Services{
		Auth:  service.NewAuthService(users, nil, service.NewTokens(signingKey, 0, clk), hasher),
		Tasks: service.NewTaskService(tasks, users, clk),
		Users: userSvc,
	}, metrics)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return todohttp.Chain(router, logger, clk, metrics, auth)
}
