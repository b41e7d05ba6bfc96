// Command workflowd runs the durable workflow execution engine's HTTP
// surface: workflow submission, run creation, and status queries, backed
// by Postgres, with interrupted runs resumed at startup before the
// listener ever accepts a request.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowforge/durableflow/internal/actions"
	"github.com/flowforge/durableflow/internal/api"
	"github.com/flowforge/durableflow/internal/executor"
	"github.com/flowforge/durableflow/internal/platform/auditlog"
	"github.com/flowforge/durableflow/internal/platform/auth"
	"github.com/flowforge/durableflow/internal/platform/env"
	"github.com/flowforge/durableflow/internal/platform/httpserver"
	"github.com/flowforge/durableflow/internal/platform/objectstore"
	"github.com/flowforge/durableflow/internal/platform/postgres"
	"github.com/flowforge/durableflow/internal/taskrunner"
	pgstore "github.com/flowforge/durableflow/internal/repo/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("WORKFLOWD_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("WORKFLOWD_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBuckets(bucketCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	authenticator, err := buildAuthenticator(ctx, authCfg)
	if err != nil {
		logger.Error("auth init failed", "error", err)
		os.Exit(2)
	}

	store := pgstore.NewStore(db)

	uploader := actions.NewObjectStoreUploader(storeClient, storeCfg)
	dispatcher := actions.NewDispatcher(logger, uploader)
	taskRunner := taskrunner.NewActionRunner(
		taskrunner.NewDemoRunner(),
		actions.NewPreconditionAdapter(dispatcher, store.DB, store.Orders),
		false, // action-precondition failures consume retry budget by default
	)

	stepExecutor := executor.NewStepExecutor(store.DB, store.Transactor, store.Steps, store.StepResults, store.Orders, taskRunner, dispatcher, logger)
	runExecutor := executor.NewRunExecutor(store.DB, store.Runs, store.Steps, store.Workflows, stepExecutor, logger)
	recovery := executor.NewRecoveryCoordinator(store.DB, store.Runs, runExecutor, logger)

	if _, err := recovery.Recover(ctx); err != nil {
		logger.Error("recovery failed", "error", err)
		os.Exit(1)
	}

	handlerAPI := api.New(logger, store.Workflows, store.Runs, store.Steps, store.DB, runExecutor)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("workflowd"))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks(
		"workflowd",
		httpserver.ReadinessCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				return db.PingContext(checkCtx)
			},
		},
		httpserver.ReadinessCheck{
			Name: "minio",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				return objectstore.CheckBuckets(checkCtx, storeClient, storeCfg)
			},
		},
	))
	handlerAPI.Register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     api.RequireRole(),
		Audit: func(ctx context.Context, event auth.DenyEvent) error {
			auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return auditlog.InsertAuthDeny(auditCtx, db, "workflowd", event)
		},
		SkipPrefixes: []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "workflowd",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "workflowd", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func buildAuthenticator(ctx context.Context, cfg auth.Config) (auth.Authenticator, error) {
	switch cfg.Mode {
	case auth.ModeOIDC:
		return auth.NewOIDCAuthenticator(ctx, cfg)
	case auth.ModeDev:
		return auth.NewDevAuthenticator(cfg), nil
	case auth.ModeDisabled:
		return auth.DisabledAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}
}
