// Package app builds the application context once at start-up: configuration,
// logging, storage, sessions, the session sweeper and the HTTP router. Every
// component receives what it needs from here; nothing is kept in globals.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/wanderlust/internal/auth"
	"github.com/patric-chuzhbe/wanderlust/internal/config"
	"github.com/patric-chuzhbe/wanderlust/internal/db/jsondb"
	"github.com/patric-chuzhbe/wanderlust/internal/db/memorystorage"
	"github.com/patric-chuzhbe/wanderlust/internal/db/mongostorage"
	"github.com/patric-chuzhbe/wanderlust/internal/db/postgresdb"
	"github.com/patric-chuzhbe/wanderlust/internal/db/storage"
	"github.com/patric-chuzhbe/wanderlust/internal/ipchecker"
	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
	"github.com/patric-chuzhbe/wanderlust/internal/router"
	"github.com/patric-chuzhbe/wanderlust/internal/service"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionsweeper"
	"github.com/patric-chuzhbe/wanderlust/internal/validation"
	"github.com/patric-chuzhbe/wanderlust/internal/views"
)

const (
	sweeperErrorsCapacity = 16
	shutdownTimeout       = 10 * time.Second
)

// App is the application context.
type App struct {
	cfg            *config.Config
	db             storage.Storage
	sessionSweeper *sessionsweeper.SessionSweeper
	stopSweeper    context.CancelFunc
	httpHandler    http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the session store and its sweeper
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
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

	sessionStore, err := sessionstore.New(
		app.db,
		app.cfg.SessionCookieName,
		app.cfg.SessionSecret,
		app.cfg.SessionTouchAfter,
		sessions.Options{
			Path:     "/",
			MaxAge:   int(app.cfg.SessionMaxAge / time.Second),
			HttpOnly: true,
			Secure:   app.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		},
	)
	if err != nil {
		return nil, err
	}

	app.sessionSweeper = sessionsweeper.New(app.db, app.cfg.SessionSweepInterval, sweeperErrorsCapacity)
	sweeperRunCtx, stopSweeper := context.WithCancel(context.Background())
	app.stopSweeper = stopSweeper

	app.sessionSweeper.Run(sweeperRunCtx)
	app.sessionSweeper.ListenErrors(func(err error) {
		logger.Log.Errorw("Error passed from the `app.sessionSweeper.ListenErrors()`", zap.Error(err))
	})

	svc := service.New(app.db, service.WithCascadeReviewsOnDelete(app.cfg.CascadeReviewsOnDelete))

	formValidator, err := validation.New()
	if err != nil {
		return nil, err
	}

	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		svc,
		formValidator,
		sessionStore,
		auth.New(svc, sessionStore),
		renderer,
		checker,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr, "AppEnv", a.cfg.AppEnv)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing the storage and exiting...")
		a.stopSweeper()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		a.stopSweeper()
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
	if cfg.DatabaseURL != "" {
		databaseURL, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return models.StorageTypeUnknown
		}

		switch databaseURL.Scheme {
		case "mongodb", "mongodb+srv":
			return models.StorageTypeMongo
		case "postgres", "postgresql":
			return models.StorageTypePostgresql
		}

		return models.StorageTypeUnknown
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type: ATLASDB_URL must be a mongodb:// or postgres:// URL")

	case models.StorageTypeMongo:
		return mongostorage.New(
			context.Background(),
			cfg.DatabaseURL,
			cfg.DBName,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseURL,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
