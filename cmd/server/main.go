// Package main initializes and starts the UniDocs API server, setting up
// configuration, logging, the database, the file store, repositories,
// services, handlers and the background purge of deleted documents.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/cache"
	"github.com/atinyakov/unidocs/internal/config"
	"github.com/atinyakov/unidocs/internal/db"
	"github.com/atinyakov/unidocs/internal/filestore"
	"github.com/atinyakov/unidocs/internal/logger"
	"github.com/atinyakov/unidocs/internal/metrics"
	"github.com/atinyakov/unidocs/internal/repository"
	"github.com/atinyakov/unidocs/internal/server/handler/http"
	"github.com/atinyakov/unidocs/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	if options.Seed {
		inserted, err := db.Seed(ctx, postgresDB)
		if err != nil {
			zapLogger.Fatal("failed to seed database", zap.Error(err))
		}
		zapLogger.Info("demo catalog", zap.Bool("inserted", inserted))
	}

	files, err := filestore.New(options.Upload.Dir)
	if err != nil {
		zapLogger.Fatal("cannot init file store", zap.Error(err))
	}

	// Initialize the purge of soft-deleted documents.
	db.StartSoftDeleteCleaner(ctx, postgresDB, files,
		options.Purge.Interval,
		options.Purge.Retention,
		zapLogger,
	)

	// The stats cache is optional; without Redis every read is a miss.
	statsCache := cache.New(nil, zapLogger)
	if options.Redis.Addr != "" {
		client, err := cache.NewRedis(options.Redis.Addr, options.Redis.Password, options.Redis.DB)
		if err != nil {
			zapLogger.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			statsCache = cache.New(client, zapLogger)
		}
	}

	m := metrics.New()
	validate := validator.New()

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	catalogRepo := repository.NewPostgresCatalogRepository(postgresDB)
	documentRepo := repository.NewPostgresDocumentRepository(postgresDB)
	statsRepo := repository.NewPostgresStatsRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, validate, zapLogger, service.AuthConfig{
		Secret:     options.JWT.Secret,
		Expiration: options.JWT.Expiration,
	})
	statsService := service.NewStatsService(statsRepo, statsCache, options.StatsTTL, zapLogger)
	catalogService := service.NewCatalogService(catalogRepo, documentRepo)
	documentService := service.NewDocumentService(documentRepo, catalogRepo, files, zapLogger, service.DocumentConfig{
		MaxBytes:          options.Upload.MaxBytes,
		AllowedExtensions: options.Upload.AllowedExtensions,
	}).WithObserver(m).WithStats(statsService)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:      &http.AuthHandler{AuthService: authService},
		Catalog:   &http.CatalogHandler{CatalogService: catalogService},
		Documents: &http.DocumentHandler{DocumentService: documentService, MaxUploadBytes: options.Upload.MaxBytes},
		Stats:     &http.StatsHandler{StatsService: statsService},
	}, authService, m.Handler(), m, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLS.Enabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLS.CertFile, options.TLS.KeyFile)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
