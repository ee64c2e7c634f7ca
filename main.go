package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/bigquery"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/databricks"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/db2"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/mssql"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/mysql"
	_ "github.com/schemalens/schemalens/pkg/adapters/engine/postgres"
	"github.com/schemalens/schemalens/pkg/config"
	"github.com/schemalens/schemalens/pkg/crypto"
	"github.com/schemalens/schemalens/pkg/database"
	"github.com/schemalens/schemalens/pkg/handlers"
	"github.com/schemalens/schemalens/pkg/llm"
	"github.com/schemalens/schemalens/pkg/repositories"
	"github.com/schemalens/schemalens/pkg/services"
	"github.com/schemalens/schemalens/pkg/vault"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting schemalens",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.Strings("engines", engineKinds()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run over database/sql; the serving path uses pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrationDB.Close() //nolint:errcheck

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to metadata store", zap.Error(err))
	}
	defer db.Close()

	encryptor, err := crypto.NewConfigEncryptor(cfg.ConfigEncryptionKey)
	if err != nil {
		logger.Fatal("Failed to create config encryptor", zap.Error(err))
	}

	credentials, err := vault.NewClient(&vault.Config{
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		Mount:   cfg.Vault.Mount,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create vault client", zap.Error(err))
	}
	if !credentials.HasProvider() {
		logger.Warn("No vault configured; environments with credential keys will not resolve")
	}

	aiClient, err := llm.NewClient(&llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create AI client", zap.Error(err))
	}
	reasoner := llm.NewReasoner(aiClient, logger)
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{
		MaxConcurrent: cfg.Analysis.MaxConcurrentColumns,
	}, logger)

	dataSourceRepo := repositories.NewDataSourceRepository(db)
	environmentRepo := repositories.NewEnvironmentRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	columnRepo := repositories.NewColumnRepository(db)
	relationshipRepo := repositories.NewRelationshipRepository(db)

	factory := engine.NewFactory(logger)
	resolver := services.NewConnectionResolver(credentials, factory, logger)
	sampler := services.NewSampler(cfg.Analysis, logger)

	dataSourceService := services.NewDataSourceService(
		dataSourceRepo, environmentRepo, tableRepo, columnRepo, encryptor, resolver, logger)
	healthService := services.NewHealthService(environmentRepo, dataSourceService, resolver, logger)
	analysisService := services.NewAnalysisService(
		tableRepo, columnRepo, dataSourceService, resolver, sampler, reasoner, pool, logger)
	relationshipService := services.NewRelationshipService(
		tableRepo, columnRepo, relationshipRepo, reasoner, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(db, cfg.Version).RegisterRoutes(mux)
	handlers.NewDataSourcesHandler(dataSourceService, factory, logger).RegisterRoutes(mux)
	handlers.NewEnvironmentsHandler(dataSourceService, healthService, logger).RegisterRoutes(mux)
	handlers.NewTablesHandler(analysisService, logger).RegisterRoutes(mux)
	handlers.NewRelationshipsHandler(relationshipService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func engineKinds() []string {
	infos := engine.RegisteredAdapters()
	kinds := make([]string, len(infos))
	for i, info := range infos {
		kinds[i] = info.Kind
	}
	return kinds
}
