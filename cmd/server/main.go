package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/maple/policydesk/internal/api"
	"github.com/maple/policydesk/internal/config"
	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/pkg/logger"
	"github.com/maple/policydesk/internal/repository/memory"
	"github.com/maple/policydesk/internal/repository/postgres"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/contract"
	"github.com/maple/policydesk/internal/service/rating"
	"github.com/maple/policydesk/migrations"
)

// backend is what both storage drivers provide.
type backend interface {
	rating.Repository
	api.RateLister
	api.Pinger
	Customers() catalog.Store[domain.Customer]
	CoveragePlans() catalog.Store[domain.CoveragePlan]
	RateCharts() catalog.Store[domain.RateChart]
	Contracts() catalog.Store[domain.ContractItem]
}

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		RedactPII: cfg.Log.Redact(),
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	resolver := rating.NewResolver(store, rating.WithStrictGender(cfg.Rating.StrictGender))
	customers := catalog.NewService(store.Customers(), "customer")
	plans := catalog.NewService(store.CoveragePlans(), "coverage plan")
	rates := catalog.NewService(store.RateCharts(), "rate chart")
	contracts := contract.NewService(store.Contracts(), customers, plans, resolver)

	handlers := api.NewHandlers(contracts, customers, plans, rates, store)
	health := api.NewHealthChecker(store, cfg.Storage.Driver)
	router := api.SetupRoutes(handlers, health, cfg.CORS.AllowedOrigins)
	server := api.NewServer(cfg.Server, router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr(), "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-done:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (backend, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("schema up to date")
	}
	return postgres.New(db), func() { db.Close() }, nil
}
