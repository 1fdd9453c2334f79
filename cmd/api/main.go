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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resume-analyzer",
		Short:         "Score a resume against a job offer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer flushTracing(shutdownTracing)

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           otelhttp.NewHandler(app.Router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", map[string]any{"addr": srv.Addr})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err})
		return srv.Close()
	}
	return nil
}

func setupTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: Version,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return shutdown, nil
}

func flushTracing(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		telemetry.Warn("tracing.shutdown_failed", map[string]any{"error": err})
	}
}
