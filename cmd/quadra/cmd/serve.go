package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quadra-ocr/quadra/internal/pipeline"
	"github.com/quadra-ocr/quadra/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the detection API",
	Long: `Start an HTTP server that exposes detection and crop extraction.

The server provides the following endpoints:
  POST /detect     - Detect boxes in an uploaded probability map
  POST /crop       - Extract a perspective-corrected patch
  GET  /ws/detect  - WebSocket endpoint streaming per-box results
  GET  /healthz    - Health check endpoint
  GET  /metrics    - Prometheus metrics

Examples:
  quadra serve
  quadra serve --port 8080
  quadra serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	p, err := pipeline.New(cfg.Pipeline)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	srv, err := server.New(cfg.Server, p)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "host to bind the server to")
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.max_upload_mb", serveCmd.Flags().Lookup("max-upload-size"))
	_ = viper.BindPFlag("server.timeout_sec", serveCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("server.shutdown_timeout", serveCmd.Flags().Lookup("shutdown-timeout"))
}
