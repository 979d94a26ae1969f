package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/model"
)

const (
	// TokenIssuer is the iss claim of locally issued access tokens.
	TokenIssuer     = "todo-devapi"
	DefaultTokenTTL = 24 * time.Hour
)

// Tokens signs HS256 access tokens for local identities.
type Tokens struct {
	key   []byte
	ttl   time.Duration
	clock clock.PassiveClock
}

func NewTokens(key []byte, ttl time.Duration, clk clock.PassiveClock) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{key: key, ttl: ttl, clock: clk}
}

func (t *Tokens) Issue(u model.User) (string, error) {
	now := t.clock.Now()
	claims := jwt.MapClaims{
		"iss":    TokenIssuer,
		"sub":    u.ID,
		"userId": u.ID,
		"email":  u.Email,
		"role":   string(u.Role),
		"iat":    now.Unix(),
		"exp":    now.Add(t.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
