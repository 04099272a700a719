package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/hanpama/querytrainer/internal/config"
	metrics "github.com/hanpama/querytrainer/internal/metrics"
	otel "github.com/hanpama/querytrainer/internal/otel"
	server "github.com/hanpama/querytrainer/internal/server"
)

const shutdownGrace = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API: query endpoints, the task catalogue, grading,
learner progress, /healthz and /metrics.

Example:
  querytrainer serve --server.addr :8080 --progress.dsn ./progress.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, nil)
		},
	}
	f := cmd.Flags()
	f.String(config.KeyServerAddr, ":8080", "HTTP listen address")
	f.Duration(config.KeyServerTimeout, 10*time.Second, "per-request timeout")
	f.Bool(config.KeyServerPretty, false, "pretty-print JSON responses")
	f.Int64(config.KeyServerMaxBody, 1<<20, "maximum request body size in bytes (0: unlimited)")
	f.StringSlice(config.KeyServerCORSOrigins, nil, "allowed CORS origins; repeatable, * for any")
	f.String(config.KeyOtelEndpoint, "", "OTLP collector endpoint (empty: tracing off)")
	f.String(config.KeyOtelService, "querytrainer", "OpenTelemetry service name")
	return cmd
}

// serve runs until ctx is done. ready, when set, receives the bound address.
func serve(ctx context.Context, opts *rootOptions, ready chan<- string) error {
	cfg, log := opts.cfg, opts.log

	shutdownTracing, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	m := metrics.New()
	defer m.Attach()()

	tr, err := opts.openTrainer()
	if err != nil {
		return err
	}
	defer tr.Close()

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithMetrics(m.Handler()),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           server.New(tr, sopts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("tasks", len(tr.Tasks())),
		zap.String("progress", cfg.Progress.DSN),
	)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
