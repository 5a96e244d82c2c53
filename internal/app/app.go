// Package app initializes and runs the task service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/patric-chuzhbe/tareas/internal/auth"
	"github.com/patric-chuzhbe/tareas/internal/config"
	"github.com/patric-chuzhbe/tareas/internal/db/collection"
	"github.com/patric-chuzhbe/tareas/internal/db/jsondb"
	"github.com/patric-chuzhbe/tareas/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tareas/internal/db/postgresdb"
	"github.com/patric-chuzhbe/tareas/internal/db/redisdb"
	"github.com/patric-chuzhbe/tareas/internal/db/storage"
	"github.com/patric-chuzhbe/tareas/internal/ipchecker"
	"github.com/patric-chuzhbe/tareas/internal/logger"
	"github.com/patric-chuzhbe/tareas/internal/metrics"
	"github.com/patric-chuzhbe/tareas/internal/models"
	"github.com/patric-chuzhbe/tareas/internal/router"
	"github.com/patric-chuzhbe/tareas/internal/service"
)

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the task service.
type App struct {
	cfg         *config.Config
	db          storage.Backend
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router and middleware
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, errors.Join(err, app.db.Close())
	}

	app.httpHandler = router.New(
		service.NewCredentialService(
			collection.New[models.User](app.db, models.UsersCollection),
		),
		service.NewTaskRepository(
			collection.New[models.Task](app.db, models.TasksCollection),
		),
		auth.New(
			[]byte(app.cfg.TokenSigningSecretKey),
			app.cfg.TokenTTL,
		),
		app.db,
		checker,
		metrics.New(),
	)

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Join(fmt.Errorf("server shutdown error: %w", err), a.db.Close())
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return errors.Join(fmt.Errorf("server error: %w", err), a.db.Close())
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.RedisAddr != "" {
		return models.StorageTypeRedis
	}

	if cfg.StorageDir != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Backend, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeRedis:
		return redisdb.New(
			context.Background(),
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.StorageDir)
	}

	return memorystorage.New()
}
