package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbMongo "github.com/kailas-cloud/cinesearch/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/cinesearch/internal/db/redis"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/cinesearch/internal/repository/catalog"
	sessionrepo "github.com/kailas-cloud/cinesearch/internal/repository/session"
	userrepo "github.com/kailas-cloud/cinesearch/internal/repository/user"
	chiTransport "github.com/kailas-cloud/cinesearch/internal/transport/chi"
	authuc "github.com/kailas-cloud/cinesearch/internal/usecase/auth"
	cataloguc "github.com/kailas-cloud/cinesearch/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/cinesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cinesearch/internal/usecase/search"
	"github.com/kailas-cloud/cinesearch/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app",
	Long: `Run the web app. On startup the catalog file is loaded and any movie without
an embedding is embedded and written back before the HTTP server starts.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cinesearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterAppMetrics()

	ctx := context.Background()

	// Users: MongoDB
	mongoClient, err := dbMongo.Connect(ctx, dbMongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  time.Duration(cfg.Mongo.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() { _ = mongoClient.Close(context.Background()) }()

	users := userrepo.New(mongoClient.Collection(cfg.Mongo.UsersCollection))
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// Sessions, login throttling and the query cache: Redis
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("create redis store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to Redis")

	authSvc, err := authuc.New(
		users,
		sessionrepo.New(store, cfg.Storage.KeyPrefix),
		authuc.Config{
			Secret:           cfg.Session.Secret,
			SessionTTL:       cfg.Session.TTL(),
			BcryptCost:       cfg.Session.BcryptCost,
			MaxLoginAttempts: cfg.Session.MaxLoginAttempts,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}
	authSvc.WithAttempts(sessionrepo.NewAttempts(store, cfg.Storage.KeyPrefix, cfg.Session.Lockout()))

	// Embedding chain and catalog
	prov, err := buildProvider(cfg.Embedding, logger)
	if err != nil {
		return err
	}
	defer prov.close()

	embedder := instrument(prov, cfg.Embedding, logger)
	prepared, err := cataloguc.New(catalogrepo.NewFileRepository(cfg.Catalog.Path), embedder, logger).
		WithBatchSize(cfg.Catalog.EmbedBatchSize).
		Prepare(ctx)
	if err != nil {
		return fmt.Errorf("prepare catalog %s: %w", cfg.Catalog.Path, err)
	}

	queryEmbedder := buildQueryEmbedder(embedder, prov.model, cfg, store, logger)
	searchSvc := searchuc.New(prepared.Catalog, queryEmbedder).
		WithLimits(cfg.Search.TopK, cfg.Search.MaxQueryLength)

	healthSvc := healthuc.New().
		WithTimeout(time.Duration(cfg.HTTP.HealthCheckSec) * time.Second).
		WithDatabase("mongo", mongoClient).
		WithDatabase("redis", store).
		WithEmbedding(healthChecker(prov.embedder))

	server := chiTransport.NewServer(authSvc, searchSvc, healthSvc, chiTransport.Config{
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
