package middleware

import (
	"context"
	"net/http"

	"github.com/jaekwang-park/todo-console/internal/model"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   model.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// GetUserID returns the caller's user id, or "" on public routes.
func GetUserID(r *http.Request) string {
	p, _ := PrincipalFrom(r.Context())
	return p.UserID
}
