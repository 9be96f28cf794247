package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tracker/pkg/config"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/llm"
	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
	"github.com/ekaya-inc/ekaya-tracker/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tracker/pkg/retry"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ekaya-tracker",
		Short:         "Track ERP vendors' AI capabilities and weak market signals",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(serveCmd(), migrateCmd(), refreshCmd(), seedCmd())
	return root
}

// app holds what every command builds before doing its own work.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	redis  *redis.Client
}

// bootstrap loads configuration, builds the root logger and connects to
// Postgres. Redis is connected only when withRedis is set and a host is configured.
func bootstrap(ctx context.Context, withRedis bool) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, logLevel)
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("oracle_provider", cfg.Oracle.Provider),
		zap.Bool("ai_update_enabled", cfg.Refresh.Enabled),
		zap.Bool("pin_gating_enabled", cfg.Auth.GatingEnabled()),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis_host", cfg.Redis.Host),
	)

	dbCfg := database.ConfigFrom(&cfg.Database)
	db, err := retry.DoWithResult(ctx, retry.StartupConfig(), func() (*database.DB, error) {
		db, err := database.NewConnection(ctx, dbCfg)
		if err != nil {
			logger.Warn("Postgres not ready, retrying", zap.String("error", logging.SanitizeError(err)))
		}
		return db, err
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	if withRedis && cfg.Redis.Host != "" {
		client, err := retry.DoWithResult(ctx, retry.StartupConfig(), func() (*redis.Client, error) {
			client, err := database.NewRedisClient(ctx, &cfg.Redis)
			if err != nil {
				logger.Warn("Redis not ready, retrying", zap.String("error", logging.SanitizeError(err)))
			}
			return client, err
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		logger.Info("Dashboard cache enabled", zap.String("redis", cfg.Redis.Addr()), zap.Duration("ttl", cfg.Redis.TTL))
	}

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	a.db.Close()
	_ = a.logger.Sync()
}

// appServices is the service layer shared by the server and the CLI commands.
type appServices struct {
	catalog   *catalog.Catalog
	vendors   services.VendorService
	signals   services.SignalService
	refresh   services.RefreshService
	dashboard services.DashboardService
}

// services builds the service layer. The refresh service, and with it the
// oracle client, is only built when withRefresh is set.
func (a *app) services(withRefresh bool) (*appServices, error) {
	cat, err := catalog.Load(a.cfg.Refresh.CatalogPath)
	if err != nil {
		return nil, err
	}

	c := cache.New(a.redis, a.cfg.Redis.TTL, a.logger)
	vendorRepo := repositories.NewVendorRepository()
	capabilityRepo := repositories.NewCapabilityRepository()
	sourceRepo := repositories.NewSourceRepository()
	signalRepo := repositories.NewSignalRepository()

	vendors := services.NewVendorService(vendorRepo, capabilityRepo, sourceRepo, cat, c, a.logger)
	signals := services.NewSignalService(signalRepo, c, a.logger)
	svcs := &appServices{
		catalog:   cat,
		vendors:   vendors,
		signals:   signals,
		dashboard: services.NewDashboardService(vendors, signals, c, a.logger),
	}
	if !withRefresh {
		return svcs, nil
	}

	oracle, err := llm.NewOracle(&a.cfg.Oracle, a.logger)
	if err != nil {
		return nil, err
	}
	svcs.refresh = services.NewRefreshService(
		a.db,
		vendorRepo,
		capabilityRepo,
		sourceRepo,
		oracle,
		cat,
		c,
		services.RefreshOptions{
			LookbackDays: a.cfg.Refresh.LookbackDays,
			Timeout:      a.cfg.Refresh.Timeout,
			Retry:        retry.DefaultConfig(),
		},
		a.logger,
	)
	return svcs, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
