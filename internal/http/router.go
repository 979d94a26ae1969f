// Package http wires the reference API: routes, the middleware chain and
// the listening server.
package http

import (
	"log/slog"
	"net/http"

	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/http/handler"
	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/service"
)

type Services struct {
	Auth  *service.AuthService
	Tasks *service.TaskService
	Users *service.UserService
	// DB is pinged by /health when set.
	DB handler.Pinger
}

func NewRouter(svc Services, metrics *middleware.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", handler.NewHealthHandler(svc.DB))
	mux.Handle("GET /metrics", metrics.Handler())

	auth := handler.NewAuthHandler(svc.Auth)
	mux.HandleFunc("POST /signup", auth.Signup)
	mux.HandleFunc("POST /signin", auth.Signin)

	tasks := handler.NewTaskHandler(svc.Tasks)
	mux.HandleFunc("GET /tasks", tasks.List)
	mux.HandleFunc("POST /create/task", tasks.Create)
	mux.HandleFunc("PATCH /task/{id}", tasks.Update)
	mux.HandleFunc("DELETE /task/{id}", tasks.Delete)

	users := handler.NewUserHandler(svc.Users)
	mux.HandleFunc("GET /me/{userId}", users.Me)

	admin := middleware.RequireRole(model.RoleAdmin)
	mux.Handle("GET /users", admin(http.HandlerFunc(users.List)))
	mux.Handle("POST /user", admin(http.HandlerFunc(users.Create)))
	mux.Handle("PATCH /users/{id}", admin(http.HandlerFunc(users.Update)))
	mux.Handle("DELETE /users/{id}", admin(http.HandlerFunc(users.Delete)))

	return mux
}

// Chain wraps router as recovery -> logging -> metrics -> auth.
func Chain(router http.Handler, logger *slog.Logger, clk clock.PassiveClock, metrics *middleware.Metrics, auth *middleware.Auth) http.Handler {
	h := auth.Middleware(router)
	h = metrics.Middleware(h)
	h = middleware.Logging(logger, clk)(h)
	return middleware.Recovery(logger)(h)
}
