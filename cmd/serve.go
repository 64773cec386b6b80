package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/api"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/config"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const (
	keyPort    = "server.port"
	keyStorage = "storage"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the audit HTTP API",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag(keyPort, cmd.Flags().Lookup("port")); err != nil {
				return fmt.Errorf("failed to bind port flag: %w", err)
			}
			if err := viper.BindPFlag(keyStorage, cmd.Flags().Lookup("storage")); err != nil {
				return fmt.Errorf("failed to bind storage flag: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.IsSet(keyPort) {
				cfg.Server.Port = viper.GetInt(keyPort)
			}
			if viper.IsSet(keyStorage) {
				cfg.Storage = viper.GetString(keyStorage)
				if err = cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().String("storage", "", "run storage: memory or database")
	return cmd
}

// serve runs the API until ctx ends, then drains HTTP requests and cancels
// active audits.
func serve(ctx context.Context, cfg *config.Config) (err error) {
	deps, err := newCommandDeps(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	log := deps.Logger

	gin.SetMode(gin.ReleaseMode)
	routerCfg := api.RouterConfig{Defaults: cfg.Audit.RunDefaults()}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = deps.MetricsHandler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.NewRouter(deps.Service, routerCfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
			logger.String("storage", cfg.Storage),
		)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		log.Error("Server error", logger.Error(serveErr))
		return fmt.Errorf("server error: %w", serveErr)
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", logger.Error(err))
		return fmt.Errorf("failed to stop server: %w", err)
	}
	if err = deps.Service.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop active audits", logger.Error(err))
		return fmt.Errorf("failed to stop active audits: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
