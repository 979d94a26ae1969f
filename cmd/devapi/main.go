// Command devapi serves the task and user REST API the console manages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/utils/clock"

	cognitopkg "github.com/jaekwang-park/todo-console/internal/cognito"
	"github.com/jaekwang-park/todo-console/internal/config"
	todohttp "github.com/jaekwang-park/todo-console/internal/http"
	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/service"
)

// userResolverAdapter adapts a user repository to middleware.UserResolver.
type userResolverAdapter struct {
	repo repository.UserRepository
}

func (a *userResolverAdapter) ResolveUser(ctx context.Context, source middleware.TokenSource, subject string) (middleware.Principal, error) {
	var (
		user model.User
		err  error
	)
	if source == middleware.SourceCognito {
		user, err = a.repo.GetByCognitoSub(ctx, subject)
	} else {
		user, err = a.repo.GetByID(ctx, subject)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return middleware.Principal{}, middleware.ErrUserNotFound
		}
		return middleware.Principal{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	return middleware.Principal{UserID: user.ID, Role: user.Role}, nil
}

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"store", cfg.Store,
		"auth_dev_mode", cfg.AuthDevMode,
		"cognito", cfg.CognitoEnabled(),
		"log_level", cfg.LogLevel,
	)

	clk := clock.RealClock{}
	svcs := todohttp.Services{}

	var (
		taskRepo repository.TaskRepository
		userRepo repository.UserRepository
	)
	switch cfg.Store {
	case "postgres":
		db, err := repository.NewDB(ctx, cfg.DB.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database connected")
		taskRepo = repository.NewPostgresTask(db)
		userRepo = repository.NewPostgresUser(db)
		svcs.DB = db
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		taskRepo = repository.NewMemoryTask(clk)
		userRepo = repository.NewMemoryUser(clk)
	}

	hasher := service.PasswordHasher{}
	authCfg := middleware.AuthConfig{
		DevMode:      cfg.AuthDevMode,
		UserResolver: &userResolverAdapter{repo: userRepo},
		Clock:        clk,
	}

	var idp cognitopkg.Client
	var tokens *service.Tokens
	if cfg.CognitoEnabled() {
		client, err := cognitopkg.NewAWSClient(ctx, cfg.Cognito.Region, cfg.Cognito.AppClientID, cfg.Cognito.AppClientSecret)
		if err != nil {
			return err
		}
		idp = client
		authCfg.JWKSClient = middleware.NewJWKSClient(middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID))
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
		logger.Info("cognito client initialized", "region", cfg.Cognito.Region)
	} else {
		key := []byte(cfg.JWTSigningKey)
		tokens = service.NewTokens(key, service.DefaultTokenTTL, clk)
		authCfg.SigningKey = key
		authCfg.LocalIssuer = service.TokenIssuer
	}

	svcs.Auth = service.NewAuthService(userRepo, idp, tokens, hasher)
	svcs.Tasks = service.NewTaskService(taskRepo, userRepo, clk)
	svcs.Users = service.NewUserService(userRepo, hasher)

	if cfg.SeedAdmin.Email != "" {
		if err := seedAdmin(ctx, logger, svcs.Users, cfg); err != nil {
			return err
		}
	}

	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}
	metrics := middleware.NewMetrics(clk)
	handler := todohttp.Chain(todohttp.NewRouter(svcs, metrics), logger, clk, metrics, auth)

	srv := todohttp.NewServer(cfg.ServerPort, logger, handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// seedAdmin creates the configured local admin. An existing account with
// the same email is left alone.
func seedAdmin(ctx context.Context, logger *slog.Logger, users *service.UserService, cfg config.Config) error {
	if cfg.CognitoEnabled() {
		logger.Warn("SEED_ADMIN_EMAIL ignored: identities are managed by cognito")
		return nil
	}
	_, err := users.Create(ctx, model.CreateUserInput{
		FirstName: "Admin",
		LastName:  "User",
		Email:     cfg.SeedAdmin.Email,
		Password:  cfg.SeedAdmin.Password,
		Role:      model.RoleAdmin,
	})
	switch {
	case err == nil:
		logger.Info("seeded admin user", "email", cfg.SeedAdmin.Email)
	case errors.Is(err, service.ErrConflict):
		logger.Info("admin user already exists", "email", cfg.SeedAdmin.Email)
	default:
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}
