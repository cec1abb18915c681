package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/lead"
	"github.com/a1media/agency-dashboard/internal/transport"
	"github.com/a1media/agency-dashboard/internal/transport/rest"
	"github.com/a1media/agency-dashboard/internal/transport/swagger"
	"github.com/a1media/agency-dashboard/internal/user"
	"github.com/a1media/agency-dashboard/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.LoggerWrapper()

	ctx := context.Background()
	if _, err := swagger.Load(ctx); err != nil {
		log.Error("embedded API document is invalid", "error", err)
		os.Exit(1)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	setupRoutes(router, app)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", "address", addr, "db_driver", app.DB.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			app.Close()
			os.Exit(1)
		}
	}

	app.Close()
	log.Info("Server stopped")
}

func setupRoutes(router chi.Router, app *application) {
	base := transport.NewBaseHandler(app.Logger)

	metricsPath := ""
	if app.Config.Observability.Metrics.Enabled {
		metricsPath = app.Config.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:   auth.NewHandler(app.Auth),
		User:   user.NewHandler(app.Users, app.Auth.PermissionTable()),
		Lead:   lead.NewHandler(base, app.Pipeline),
		Client: client.NewHandler(base, app.Clients),
		Health: rest.NewHealthHandler(healthChecks(app)),
	}, auth.NewRBACAuthorization(app.Auth, app.Auth.PermissionTable(), app.Logger), rest.Options{
		AllowedOrigins: app.Config.Server.AllowedOrigins,
		MetricsPath:    metricsPath,
	}, app.Logger)
}

func healthChecks(app *application) map[string]rest.CheckFunc {
	checks := map[string]rest.CheckFunc{
		"database": app.DB.Ping,
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

