package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/orchestrator"
	"github.com/vzahanych/weather-page/internal/server"
	"github.com/vzahanych/weather-page/internal/weather"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Serve the weather page over HTTP",
		Long:  `Start the HTTP server that owns the page state: search a location, toggle units, read the page and its forecast chart.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	units, err := weather.ParseUnitSystem(cfg.Page.DefaultUnits)
	if err != nil {
		return err
	}

	log.Info("Starting weather page server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", tele.IsEnabled()),
		zap.Int("server_port", cfg.Server.Port),
		zap.String("default_units", units.String()))

	page := orchestrator.New(cfg.Providers, units, log.Logger, tele)
	srv := server.NewServer(cfg, page, log.Logger, tele)

	if cfg.Page.InitialLocation != "" {
		go func() {
			if _, err := page.Search(cmd.Context(), cfg.Page.InitialLocation); err != nil {
				log.Warn("Initial location fetch failed",
					zap.String("location", cfg.Page.InitialLocation),
					zap.Error(err))
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-cmd.Context().Done():
		log.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
