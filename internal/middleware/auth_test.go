package middleware_test

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	testclock "k8s.io/utils/clock/testing"

	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
)

var (
	testNow    = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	testKey    = []byte("test-signing-key")
	testIssuer = "https://cognito-idp.ap-northeast-1.amazonaws.com/pool-1"
)

type mockResolver struct {
	resolveFn func(ctx context.Context, source middleware.TokenSource, subject string) (middleware.Principal, error)
}

func (m *mockResolver) ResolveUser(ctx context.Context, source middleware.TokenSource, subject string) (middleware.Principal, error) {
	return m.resolveFn(ctx, source, subject)
}

// staticResolver knows user-1 locally and sub-1 through Cognito.
func staticResolver() *mockResolver {
	return &mockResolver{resolveFn: func(_ context.Context, source middleware.TokenSource, subject string) (middleware.Principal, error) {
		switch {
		case source == middleware.SourceLocal && subject == "user-1":
			return middleware.Principal{UserID: "user-1", Role: model.RoleUser}, nil
		case source == middleware.SourceCognito && subject == "sub-1":
			return middleware.Principal{UserID: "user-2", Role: model.RoleAdmin}, nil
		}
		return middleware.Principal{}, middleware.ErrUserNotFound
	}}
}

func localToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func rsaToken(t *testing.T, privKey *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(privKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func localClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": "todo-devapi",
		"sub": sub,
		"iat": testNow.Unix(),
		"exp": testNow.Add(time.Hour).Unix(),
	}
}

func newTestAuth(t *testing.T, cfg middleware.AuthConfig) *middleware.Auth {
	t.Helper()
	if cfg.UserResolver == nil {
		cfg.UserResolver = staticResolver()
	}
	cfg.Clock = testclock.NewFakePassiveClock(testNow)
	auth, err := middleware.NewAuth(cfg)
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	return auth
}

// serve runs req through auth and reports the status and the principal the
// inner handler saw.
func serve(auth *middleware.Auth, req *http.Request) (int, middleware.Principal) {
	var seen middleware.Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	w := httptest.NewRecorder()
	auth.Middleware(inner).ServeHTTP(w, req)
	return w.Code, seen
}

func bearer(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestNewAuth_Validation(t *testing.T) {
	if _, err := middleware.NewAuth(middleware.AuthConfig{SigningKey: testKey}); err == nil {
		t.Error("expected error without a resolver")
	}
	if _, err := middleware.NewAuth(middleware.AuthConfig{UserResolver: staticResolver()}); err == nil {
		t.Error("expected error without any verifier")
	}
	if _, err := middleware.NewAuth(middleware.AuthConfig{DevMode: true, UserResolver: staticResolver()}); err != nil {
		t.Errorf("dev mode alone should be enough: %v", err)
	}
}

func TestAuth_DevMode(t *testing.T) {
	auth := newTestAuth(t, middleware.AuthConfig{DevMode: true})

	tests := []struct {
		name       string
		userIDHdr  string
		wantStatus int
		wantUserID string
	}{
		{"with X-User-ID", "user-1", http.StatusOK, "user-1"},
		{"unknown X-User-ID", "ghost", http.StatusUnauthorized, ""},
		{"without X-User-ID", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.userIDHdr != "" {
				req.Header.Set("X-User-ID", tt.userIDHdr)
			}

			code, p := serve(auth, req)

			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			if p.UserID != tt.wantUserID {
				t.Errorf("expected userID=%q, got %q", tt.wantUserID, p.UserID)
			}
		})
	}
}

func TestAuth_SkipsPublicPaths(t *testing.T) {
	auth := newTestAuth(t, middleware.AuthConfig{SigningKey: testKey, LocalIssuer: "todo-devapi"})

	for _, p := range []string{"/health", "/metrics", "/signup", "/signin", "/signin/"} {
		t.Run(p, func(t *testing.T) {
			if code, _ := serve(auth, httptest.NewRequest(http.MethodPost, p, nil)); code != http.StatusOK {
				t.Errorf("expected 200 for %s, got %d", p, code)
			}
		})
	}
}

func TestAuth_LocalToken(t *testing.T) {
	auth := newTestAuth(t, middleware.AuthConfig{SigningKey: testKey, LocalIssuer: "todo-devapi"})

	expired := localClaims("user-1")
	expired["exp"] = testNow.Add(-time.Minute).Unix()
	noExp := localClaims("user-1")
	delete(noExp, "exp")
	wrongIssuer := localClaims("user-1")
	wrongIssuer["iss"] = "someone-else"

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantUserID string
	}{
		{"valid", localToken(t, testKey, localClaims("user-1")), http.StatusOK, "user-1"},
		{"expired", localToken(t, testKey, expired), http.StatusUnauthorized, ""},
		{"no expiry", localToken(t, testKey, noExp), http.StatusUnauthorized, ""},
		{"wrong issuer", localToken(t, testKey, wrongIssuer), http.StatusUnauthorized, ""},
		{"wrong key", localToken(t, []byte("other"), localClaims("user-1")), http.StatusUnauthorized, ""},
		{"unknown user", localToken(t, testKey, localClaims("ghost")), http.StatusUnauthorized, ""},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, ""},
		{"missing header", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, p := serve(auth, bearer("/tasks", tt.token))
			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			if p.UserID != tt.wantUserID {
				t.Errorf("expected userID=%q, got %q", tt.wantUserID, p.UserID)
			}
		})
	}
}

func TestAuth_CognitoToken(t *testing.T) {
	jwksData, privKey := generateTestJWKS(t, "kid-1")
	server, _ := serveJWKS(t, func() []byte { return jwksData })

	auth := newTestAuth(t, middleware.AuthConfig{
		SigningKey:  testKey,
		LocalIssuer: "todo-devapi",
		JWKSClient:  middleware.NewJWKSClient(server.URL),
		Issuer:      testIssuer,
		AppClientID: "client-1",
	})

	claims := func(mutate func(jwt.MapClaims)) jwt.MapClaims {
		c := jwt.MapClaims{
			"iss": testIssuer,
			"aud": "client-1",
			"sub": "sub-1",
			"exp": testNow.Add(time.Hour).Unix(),
		}
		if mutate != nil {
			mutate(c)
		}
		return c
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantUserID string
	}{
		{"valid", rsaToken(t, privKey, "kid-1", claims(nil)), http.StatusOK, "user-2"},
		{"wrong audience", rsaToken(t, privKey, "kid-1", claims(func(c jwt.MapClaims) { c["aud"] = "other" })), http.StatusUnauthorized, ""},
		{"wrong issuer", rsaToken(t, privKey, "kid-1", claims(func(c jwt.MapClaims) { c["iss"] = "https://evil" })), http.StatusUnauthorized, ""},
		{"unknown kid", rsaToken(t, privKey, "kid-2", claims(nil)), http.StatusUnauthorized, ""},
		{"expired", rsaToken(t, privKey, "kid-1", claims(func(c jwt.MapClaims) { c["exp"] = testNow.Add(-time.Hour).Unix() })), http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, p := serve(auth, bearer("/tasks", tt.token))
			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			if p.UserID != tt.wantUserID {
				t.Errorf("expected userID=%q, got %q", tt.wantUserID, p.UserID)
			}
		})
	}
}

func TestAuth_RS256RejectedWithoutJWKS(t *testing.T) {
	_, privKey := generateTestJWKS(t, "kid-1")
	auth := newTestAuth(t, middleware.AuthConfig{SigningKey: testKey, LocalIssuer: "todo-devapi"})

	token := rsaToken(t, privKey, "kid-1", jwt.MapClaims{"sub": "sub-1", "exp": testNow.Add(time.Hour).Unix()})
	if code, _ := serve(auth, bearer("/tasks", token)); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestAuth_InvalidBearerFormat(t *testing.T) {
	auth := newTestAuth(t, middleware.AuthConfig{SigningKey: testKey, LocalIssuer: "todo-devapi"})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	auth.Middleware(http.NotFoundHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Error.Code != "UNAUTHORIZED" || body.Error.Message != "invalid authorization header format" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAuth_ResolverFailure(t *testing.T) {
	auth := newTestAuth(t, middleware.AuthConfig{
		SigningKey:  testKey,
		LocalIssuer: "todo-devapi",
		UserResolver: &mockResolver{resolveFn: func(context.Context, middleware.TokenSource, string) (middleware.Principal, error) {
			return middleware.Principal{}, errors.New("db down")
		}},
	})

	code, _ := serve(auth, bearer("/tasks", localToken(t, testKey, localClaims("user-1"))))
	if code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", code)
	}
}

func TestRequireRole(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.RequireRole(model.RoleAdmin)(inner)

	tests := []struct {
		name       string
		principal  *middleware.Principal
		wantStatus int
	}{
		{"admin", &middleware.Principal{UserID: "a", Role: model.RoleAdmin}, http.StatusOK},
		{"user", &middleware.Principal{UserID: "u", Role: model.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.principal != nil {
				req = req.WithContext(middleware.WithPrincipal(req.Context(), *tt.principal))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
