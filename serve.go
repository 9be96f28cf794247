package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/handlers"
	"github.com/ekaya-inc/ekaya-tracker/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-tracker/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-tracker/pkg/middleware"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API and MCP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.RunMigrationsFromPool(a.db, a.logger); err != nil {
				a.logger.Error("Failed to run migrations", zap.Error(err))
				return err
			}

			handler, err := a.router()
			if err != nil {
				return err
			}
			return a.listen(ctx, handler)
		},
	}
}

// router assembles every route of the API onto one mux.
func (a *app) router() (http.Handler, error) {
	cfg, logger := a.cfg, a.logger

	svcs, err := a.services(cfg.Refresh.Enabled)
	if err != nil {
		return nil, err
	}

	cookie := auth.DeriveCookieSettings(cfg.BaseURL, cfg.CookieDomain)
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cookie)
	authService := auth.NewAuthService(cfg.Auth.PIN, cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, sessions, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	auditor := audit.NewSecurityAuditor(logger)

	scope := handlers.RouteMiddleware(database.WithConnection(a.db, logger))
	unlock := handlers.RouteMiddleware(authMiddleware.RequireUnlocked)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, a.db, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, auditor, logger).RegisterRoutes(mux)
	handlers.NewVendorHandler(svcs.vendors, auditor, logger).RegisterRoutes(mux, scope, unlock)
	handlers.NewSignalHandler(svcs.signals, auditor, logger).RegisterRoutes(mux, scope, unlock)
	handlers.NewDashboardHandler(svcs.dashboard, logger).RegisterRoutes(mux, scope)
	handlers.NewRefreshHandler(svcs.refresh, cfg.Refresh.Enabled, auditor, logger).RegisterRoutes(mux, unlock)

	if cfg.MCP.Enabled {
		toolAuditor := mcp.NewToolAuditor(logger)
		mcpServer := mcp.NewServer("ekaya-tracker", cfg.Version, toolAuditor.Hooks(), logger)
		tools.Register(mcpServer.MCP(), &tools.Deps{
			DB:             a.db,
			Vendors:        svcs.vendors,
			Signals:        svcs.signals,
			Refresh:        svcs.refresh,
			RefreshEnabled: cfg.Refresh.Enabled,
			Auth:           authService,
			Auditor:        auditor,
			Version:        cfg.Version,
			Logger:         logger.Named("mcp-tools"),
		})

		mux.Handle("POST /mcp", mcpServer.HTTPHandler(
			middleware.MCPRequestLogger(logger),
			mcpauth.NewMiddleware(authService, logger).Authenticate,
		))
		logger.Info("MCP endpoint enabled", zap.String("path", "/mcp"))
	}

	return middleware.RequestLogger(logger)(mux), nil
}

// listen serves handler until ctx is cancelled, then drains in-flight requests.
func (a *app) listen(ctx context.Context, handler http.Handler) error {
	addr := net.JoinHostPort(a.cfg.BindAddr, a.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.serve(ctx, ln, handler)
}

// serve runs the HTTP server on ln until ctx is cancelled. Requests in flight
// at that point keep their own contexts and get shutdownTimeout to finish.
func (a *app) serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	cfg, logger := a.cfg, a.logger

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-tracker",
			zap.String("addr", ln.Addr().String()),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = srv.ServeTLS(ln, cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
