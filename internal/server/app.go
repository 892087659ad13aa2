// Package server initializes and runs the ingestion server. It wires the
// Postgres catalog, the object store backend, the staging area and the HTTP
// surface, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/provenia/provenia/internal/filetype"
	"github.com/provenia/provenia/internal/logging"
	"github.com/provenia/provenia/internal/objectstore"
	"github.com/provenia/provenia/internal/objectstore/ipfs"
	"github.com/provenia/provenia/internal/objectstore/s3store"
	"github.com/provenia/provenia/internal/server/config"
	"github.com/provenia/provenia/internal/server/services"
	"github.com/provenia/provenia/internal/server/shared/db"
	"github.com/provenia/provenia/internal/server/web"
	"github.com/provenia/provenia/internal/staging"
	"github.com/provenia/provenia/internal/thumbnail"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   db.RepositoryManager
	ingest  *services.IngestService
	catalog *services.CatalogService
	stager  *staging.Stager
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	repos, err := db.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	stager, err := staging.NewStager(afero.NewOsFs(), c.TempDir)
	if err != nil {
		return nil, fmt.Errorf("staging init error: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	validator := filetype.NewValidator(c.MaxFileSizeBytes, c.AllowedCategories)
	deriver := thumbnail.NewDeriver(c.ThumbnailSize)
	dedup := services.NewDedupChecker(repos.Catalog())

	ingest := services.NewIngestService(stager, validator, deriver, store,
		repos.Catalog(), dedup, logger, c.MaxConcurrentIngests)
	catalog := services.NewCatalogService(repos.Catalog(), store, dedup, gatewayBase(c), logger)

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		ingest:  ingest,
		catalog: catalog,
		stager:  stager,
	}, nil
}

// gatewayBase returns the public display-URL base for the configured
// backend. Only the IPFS backend has a gateway; S3 keys are not
// resolvable through one, so entries carry no URL there.
func gatewayBase(c *config.Config) string {
	if c.ObjectStoreBackend == "ipfs" {
		return c.IPFSGatewayURL
	}
	return ""
}

func newObjectStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	switch c.ObjectStoreBackend {
	case "ipfs":
		return ipfs.NewClient(c.IPFSAPIEndpoint, c.StoreTimeout), nil
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Timeout:      c.StoreTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown object store backend %q", c.ObjectStoreBackend)
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	engine := gin.New()
	engine.Use(gin.Recovery())

	handler := web.NewFileHandler(app.ingest, app.catalog, app.stager, app.logger,
		app.config.MaxFileSizeBytes, app.config.MaxFilesPerBatch)
	handler.RegisterRoutes(engine, []byte(app.config.SecretKey))

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: engine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(context.Background(), "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}
}
