package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/session"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestSession_SetClearNotifies(t *testing.T) {
	ctx := context.Background()
	s := session.New(session.NewMemoryStore())

	var seen []model.Tokens
	unsubscribe := s.Subscribe(func(tokens model.Tokens) { seen = append(seen, tokens) })

	require.NoError(t, s.Set(ctx, model.Tokens{AccessToken: "a", RefreshToken: "r"}))
	assert.True(t, s.Authenticated())
	assert.Equal(t, "a", s.Token())
	assert.Equal(t, "r", s.RefreshToken())

	require.NoError(t, s.Clear(ctx))
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.RefreshToken())

	unsubscribe()
	require.NoError(t, s.Set(ctx, model.Tokens{AccessToken: "b"}))

	require.Len(t, seen, 2)
	assert.Equal(t, "a", seen[0].AccessToken)
	assert.Empty(t, seen[1].AccessToken)
}

func TestSession_SetRequiresToken(t *testing.T) {
	s := session.New(nil)
	assert.Error(t, s.Set(context.Background(), model.Tokens{RefreshToken: "r"}))
	assert.False(t, s.Authenticated())
}

func TestSession_SetStoreFailureKeepsState(t *testing.T) {
	store := session.NewMemoryStore()
	store.FailWith(errors.New("disk full"))
	s := session.New(store)

	err := s.Set(context.Background(), model.Tokens{AccessToken: "a"})
	require.Error(t, err)
	assert.False(t, s.Authenticated())
}

func TestSession_ClearStillNotifiesOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	s := session.New(store)
	require.NoError(t, s.Set(ctx, model.Tokens{AccessToken: "a"}))

	cleared := false
	s.Subscribe(func(tokens model.Tokens) { cleared = tokens.AccessToken == "" })

	store.FailWith(errors.New("locked"))
	assert.Error(t, s.Clear(ctx))
	assert.True(t, cleared)
	assert.False(t, s.Authenticated())
}

func TestSession_UserID(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    string
		wantErr error
	}{
		{"userId claim", jwt.MapClaims{"userId": "u1"}, "u1", nil},
		{"sub claim", jwt.MapClaims{"sub": "u2"}, "u2", nil},
		{"userId wins over sub", jwt.MapClaims{"userId": "u3", "sub": "cognito"}, "u3", nil},
		{"no claim", jwt.MapClaims{"role": "ADMIN"}, "", session.ErrNoUserClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.New(nil)
			require.NoError(t, s.Set(context.Background(), model.Tokens{AccessToken: signed(t, tt.claims)}))

			got, err := s.UserID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_UserIDWithoutToken(t *testing.T) {
	_, err := session.New(nil).UserID()
	assert.ErrorIs(t, err, session.ErrSignInRequired)
}

func TestSession_Guard(t *testing.T) {
	ctx := context.Background()
	s := session.New(nil)

	assert.NoError(t, s.Guard(session.RouteSignIn))
	assert.NoError(t, s.Guard(session.RouteSignUp))
	assert.ErrorIs(t, s.Guard(session.RouteTasks), session.ErrSignInRequired)
	assert.Equal(t, session.RouteSignIn, s.Landing())

	require.NoError(t, s.Set(ctx, model.Tokens{AccessToken: "a"}))
	assert.NoError(t, s.Guard(session.RouteUsers))
	assert.Equal(t, session.RouteTasks, s.Landing())
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	store, err := session.OpenSQLite(ctx, path)
	require.NoError(t, err)

	s, err := session.Open(ctx, store)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Set(ctx, model.Tokens{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.Close())

	reopened, err := session.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	s2, err := session.Open(ctx, reopened)
	require.NoError(t, err)
	assert.Equal(t, "a", s2.Token())
	assert.Equal(t, "r", s2.RefreshToken())

	// A token without refresh token removes the stale refresh row.
	require.NoError(t, s2.Set(ctx, model.Tokens{AccessToken: "b"}))
	tokens, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Tokens{AccessToken: "b"}, tokens)

	require.NoError(t, s2.Clear(ctx))
	tokens, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Tokens{}, tokens)
}
