package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/model"
)

// ErrUserNotFound is returned by UserResolver when no user matches a token
// subject.
var ErrUserNotFound = errors.New("user not found")

// TokenSource says which identity provider issued a token, and so what its
// subject means.
type TokenSource int

const (
	// SourceLocal subjects are user ids.
	SourceLocal TokenSource = iota
	// SourceCognito subjects are Cognito user subs.
	SourceCognito
)

// UserResolver maps a token subject to a user. Implementations must return
// ErrUserNotFound (or a wrapped form) when the user does not exist.
type UserResolver interface {
	ResolveUser(ctx context.Context, source TokenSource, subject string) (Principal, error)
}

// publicPaths never require a token.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/signup":  true,
	"/signin":  true,
}

type AuthConfig struct {
	// DevMode trusts an X-User-ID header. Never enable outside local.
	DevMode bool

	// SigningKey and LocalIssuer verify HS256 tokens issued by this API.
	SigningKey  []byte
	LocalIssuer string

	// JWKSClient, Issuer and AppClientID verify RS256 Cognito ID tokens.
	JWKSClient  *JWKSClient
	Issuer      string
	AppClientID string

	UserResolver UserResolver
	Clock        clock.PassiveClock
}

type Auth struct {
	cfg     AuthConfig
	local   *jwt.Parser
	cognito *jwt.Parser
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if cfg.UserResolver == nil {
		return nil, fmt.Errorf("middleware: UserResolver is required")
	}
	if !cfg.DevMode && len(cfg.SigningKey) == 0 && cfg.JWKSClient == nil {
		return nil, fmt.Errorf("middleware: SigningKey or JWKSClient is required when DevMode is false")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}

	a := &Auth{cfg: cfg}
	timeFunc := jwt.WithTimeFunc(cfg.Clock.Now)
	if len(cfg.SigningKey) > 0 {
		a.local = jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256"}),
			jwt.WithIssuer(cfg.LocalIssuer),
			jwt.WithExpirationRequired(),
			timeFunc,
		)
	}
	if cfg.JWKSClient != nil {
		a.cognito = jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.AppClientID),
			timeFunc,
		)
	}
	return a, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[path.Clean(r.URL.Path)] {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.DevMode {
			if userID := r.Header.Get("X-User-ID"); userID != "" {
				a.serveAs(w, r, next, SourceLocal, userID)
				return
			}
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header required")
			return
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		source, sub, err := a.verify(r.Context(), tokenStr)
		if err != nil {
			slog.DebugContext(r.Context(), "token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}
		a.serveAs(w, r, next, source, sub)
	})
}

// verify checks the token with the parser its algorithm selects and returns
// the subject.
func (a *Auth) verify(ctx context.Context, tokenStr string) (TokenSource, string, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return 0, "", err
	}

	var (
		source TokenSource
		token  *jwt.Token
	)
	switch alg := unverified.Method.Alg(); {
	case alg == "HS256" && a.local != nil:
		source = SourceLocal
		token, err = a.local.Parse(tokenStr, func(*jwt.Token) (any, error) {
			return a.cfg.SigningKey, nil
		})
	case alg == "RS256" && a.cognito != nil:
		source = SourceCognito
		token, err = a.cognito.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			kid, ok := t.Header["kid"].(string)
			if !ok {
				return nil, fmt.Errorf("kid header not found")
			}
			return a.cfg.JWKSClient.GetKey(ctx, kid)
		})
	default:
		return 0, "", fmt.Errorf("unexpected signing method: %s", alg)
	}
	if err != nil {
		return 0, "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, "", fmt.Errorf("sub claim not found")
	}
	return source, sub, nil
}

func (a *Auth) serveAs(w http.ResponseWriter, r *http.Request, next http.Handler, source TokenSource, subject string) {
	p, err := a.cfg.UserResolver.ResolveUser(r.Context(), source, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user not found")
		} else {
			slog.ErrorContext(r.Context(), "user resolution failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}
	next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
}

// RequireRole rejects callers without role with 403.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			if p.Role != role {
				writeError(w, http.StatusForbidden, "FORBIDDEN", fmt.Sprintf("%s access required", strings.ToLower(string(role))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}

// CognitoIssuer returns the expected issuer for the given Cognito User Pool.
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
