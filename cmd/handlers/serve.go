package handlers

import (
	"context"
	"fmt"
	"time"

	"researchpub/internal/logger"
	"researchpub/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only JSON API",
		Long: `Start an HTTP server exposing stored items, analyses, drafts and runs.

Endpoints:
  GET /health
  GET /api/status
  GET /api/items              ?status= &source= &limit= &offset=
  GET /api/items/{id}
  GET /api/items/{id}/analysis
  GET /api/drafts             ?status= &format=
  GET /api/drafts/{id}        ?render=html
  GET /api/runs               ?kind= &limit=
  GET /api/cache

Examples:
  # Start server on default port 8080
  researchpub serve

  # Start on custom port
  researchpub serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	srv := server.New(st, serverCfg)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		logger.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		logger.Info("Server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", err)
			return err
		}
		logger.Info("Server stopped successfully")
	}
	return nil
}
