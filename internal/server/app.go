// Package server wires the intelligence server together: configuration,
// user store, credential codec, storage backend and the HTTP and gRPC
// transports, with signal-driven graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"github.com/dmitrijs2005/intelligence/internal/server/config"
	"github.com/dmitrijs2005/intelligence/internal/server/metrics"
	"github.com/dmitrijs2005/intelligence/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/intelligence/internal/server/rest"
	"github.com/dmitrijs2005/intelligence/internal/server/services"
	"github.com/dmitrijs2005/intelligence/internal/server/storage"
	"github.com/dmitrijs2005/intelligence/internal/server/storage/fs"
	"github.com/dmitrijs2005/intelligence/internal/server/storage/s3"

	gs "github.com/dmitrijs2005/intelligence/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
	grpc    *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	ctx := context.Background()

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// newApp builds every component on top of an open database.
func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	codec, err := auth.NewCodec([]byte(c.SecretKey), auth.WithTTL(c.TokenValidityDuration))
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}

	m := metrics.New()

	authn := auth.NewAuthenticator(codec, auth.NewStoreResolver(rm.Users(db)),
		auth.WithLogger(logger),
		auth.WithFailureObserver(func(r auth.Reason) { m.ObserveAuthFailure(r.String()) }),
	)

	backend, err := newBackend(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	store := storage.NewManager(backend, logger, storage.WithObserver(m.ObserveStorage))

	handler := rest.NewRouter(rest.Deps{
		Authenticator: authn,
		Users:         services.NewUserService(db, rm, codec),
		Storage:       store,
		Metrics:       m,
		DB:            db,
		Logger:        logger,
	})

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		handler: handler,
		grpc:    gs.NewGRPCServer(c.EndpointAddrGRPC, logger, authn),
	}, nil
}

func newBackend(ctx context.Context, c *config.Config, logger logging.Logger) (storage.Backend, error) {
	switch c.StorageBackend {
	case config.StorageBackendFS:
		b, err := fs.New(fs.Config{Root: c.FilePath, Confine: c.StorageConfine, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("fs storage: %w", err)
		}
		logger.Info(ctx, "storage backend ready", "backend", c.StorageBackend, "base_dir", b.BaseDir())
		return b, nil
	case config.StorageBackendS3:
		b, err := s3.NewFromConfig(ctx, s3.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			Endpoint:     c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			KeyPrefix:    c.S3KeyPrefix,
			UsePathStyle: c.S3UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		logger.Info(ctx, "storage backend ready", "backend", c.StorageBackend, "bucket", c.S3Bucket)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
