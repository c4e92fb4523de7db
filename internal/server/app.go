// Package server wires the feedbackhub web service together: storage, blob
// store, classifiers, services and the HTTP server, and runs it until a
// termination signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/blobstore"
	"github.com/dmitrijs2005/feedbackhub/internal/server/classify"
	"github.com/dmitrijs2005/feedbackhub/internal/server/config"
	"github.com/dmitrijs2005/feedbackhub/internal/server/httpapi"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sqlx.DB
	server httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sqlx.DB, rm *repomanager.SQLRepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	classifier, err := newClassifier(c, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier init error: %w", err)
	}

	institutions := services.NewInstitutionService(db, rm, logger)
	admins := services.NewAdminService(db, rm, logger)
	intake := services.NewIntakeService(db, rm, classifier, blobs, logger)
	retrieval := services.NewRetrievalService(db, rm, admins, blobs, logger)

	boot := services.NewBootstrapper(db, rm, services.FileDiscloser{Path: c.DisclosureFile}, c.AdminUsername, logger)
	if _, err := boot.Run(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	srv := httpapi.NewServer(&httpapi.Options{
		Address:        c.HTTPAddress,
		MaxUploadBytes: c.MaxUploadBytes,
		Logger:         logger,
		Institutions:   institutions,
		Admins:         admins,
		Intake:         intake,
		Retrieval:      retrieval,
	})

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobBackend {
	case "", "local":
		return blobstore.NewLocalStore(c.UploadDir)
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			Endpoint:     c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			UsePathStyle: c.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

// newClassifier uses the bundled models unless an inference endpoint is
// configured, in which case sentiment and spam go to it. Language detection
// is always local.
func newClassifier(c *config.Config, logger logging.Logger) (*classify.Adapters, error) {
	var keywords []string
	if c.SpamKeywordsFile != "" {
		kw, err := classify.LoadKeywords(c.SpamKeywordsFile)
		if err != nil {
			return nil, err
		}
		keywords = kw
	}

	if c.ClassifierEndpoint == "" {
		return classify.NewDefault(logger, keywords...), nil
	}

	remote := classify.NewRemoteModel(c.ClassifierEndpoint, c.ClassifierTimeout, nil)
	return classify.NewAdapters(classify.NewWhatlangDetector(), remote, remote, logger), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := app.server.Stop(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	// Start returns as soon as Shutdown begins; wait for in-flight requests.
	<-stopped
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives, then
// drains in-flight requests and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.HTTPAddress)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
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
