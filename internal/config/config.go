package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// DevSigningKey is the local-only default for JWT_SIGNING_KEY.
const DevSigningKey = "local-dev-signing-key"

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

var validStores = map[string]bool{
	"memory":   true,
	"postgres": true,
}

// Config configures the reference API server.
type Config struct {
	ServerPort    string
	AppEnv        string
	AuthDevMode   bool
	LogLevel      string
	Store         string
	JWTSigningKey string
	DB            DBConfig
	Cognito       CognitoConfig

	// SeedAdmin, when Email is set, is created as an ADMIN at startup
	// unless that email already exists.
	SeedAdmin SeedAdminConfig
}

type SeedAdminConfig struct {
	Email    string
	Password string
}

func (c Config) ParseLogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !validStores[c.Store] {
		return fmt.Errorf("invalid STORE %q: must be one of memory, postgres", c.Store)
	}
	if c.SeedAdmin.Email != "" && c.SeedAdmin.Password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required when SEED_ADMIN_EMAIL is set")
	}
	if c.CognitoEnabled() {
		if c.Cognito.UserPoolID == "" {
			return errors.New("COGNITO_USER_POOL_ID is required when COGNITO_APP_CLIENT_ID is set")
		}
		return nil
	}
	if c.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required when Cognito is not configured")
	}
	if c.JWTSigningKey == DevSigningKey && c.AppEnv != "local" {
		return fmt.Errorf("JWT_SIGNING_KEY must be set explicitly in %s environment", c.AppEnv)
	}
	return nil
}

// CognitoEnabled reports whether identities are delegated to a Cognito user pool.
func (c Config) CognitoEnabled() bool {
	return c.Cognito.AppClientID != ""
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region          string
	UserPoolID      string
	AppClientID     string
	AppClientSecret string
}

func Load() Config {
	return Config{
		ServerPort:    envOrDefault("SERVER_PORT", "8000"),
		AppEnv:        envOrDefault("APP_ENV", "local"),
		AuthDevMode:   strings.EqualFold(envOrDefault("AUTH_DEV_MODE", "false"), "true"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		Store:         strings.ToLower(envOrDefault("STORE", "memory")),
		JWTSigningKey: envOrDefault("JWT_SIGNING_KEY", DevSigningKey),
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "todo"),
			Password: envOrDefault("DB_PASSWORD", "todo"),
			Name:     envOrDefault("DB_NAME", "todo"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		Cognito: CognitoConfig{
			Region:          envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:     os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret: os.Getenv("COGNITO_APP_CLIENT_SECRET"),
		},
		SeedAdmin: SeedAdminConfig{
			Email:    os.Getenv("SEED_ADMIN_EMAIL"),
			Password: os.Getenv("SEED_ADMIN_PASSWORD"),
		},
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
