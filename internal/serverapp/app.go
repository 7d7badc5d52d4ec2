// Package serverapp wires configuration, logging, and observability into a
// runnable HTTP server hosting a cascade-enabled GraphQL endpoint.
package serverapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"graphql-cascade/internal/config"
	"graphql-cascade/internal/logging"
	"graphql-cascade/internal/middleware"
	"graphql-cascade/internal/observability"
)

// App holds the assembled server and its telemetry providers.
type App struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *observability.CascadeMetrics

	meterProvider  *observability.MeterProvider
	tracerProvider *observability.TracerProvider
	loggerProvider *observability.LoggerProvider

	server *http.Server
}

// New initializes telemetry and logging from config.
func New(cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	obsCfg := observability.Config{
		ServiceName:      cfg.Observability.ServiceName,
		ServiceVersion:   cfg.Observability.ServiceVersion,
		Environment:      cfg.Observability.Environment,
		TraceSampleRatio: cfg.Observability.TraceSampleRatio,
		OTLP: observability.OTLPConfig{
			Endpoint:    cfg.Observability.OTLP.Endpoint,
			Protocol:    cfg.Observability.OTLP.Protocol,
			Insecure:    cfg.Observability.OTLP.Insecure,
			TLSCAFile:   cfg.Observability.OTLP.CAFile,
			TLSCertFile: cfg.Observability.OTLP.CertFile,
			TLSKeyFile:  cfg.Observability.OTLP.KeyFile,
			Headers:     cfg.Observability.OTLP.Headers,
			Timeout:     cfg.Observability.OTLP.Timeout,
		},
	}

	if cfg.Observability.MetricsEnabled {
		mp, err := observability.InitMeterProvider(obsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init meter provider: %w", err)
		}
		app.meterProvider = mp

		metrics, err := observability.InitCascadeMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to init cascade metrics: %w", err)
		}
		app.metrics = metrics
	}

	if cfg.Observability.TracingEnabled {
		tp, err := observability.InitTracerProvider(obsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init tracer provider: %w", err)
		}
		app.tracerProvider = tp
	}

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Observability.LogExportEnabled {
		lp, err := observability.InitLoggerProvider(obsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init logger provider: %w", err)
		}
		app.loggerProvider = lp
		logCfg.LoggerProvider = lp.Provider()
	}
	app.logger = logging.NewLogger(logCfg)
	slog.SetDefault(app.logger.Logger)

	return app, nil
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger { return a.logger }

// Metrics returns the cascade metrics, or nil when metrics are disabled.
func (a *App) Metrics() *observability.CascadeMetrics { return a.metrics }

// Run serves the GraphQL handler until the context is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context, graphqlHandler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/graphql", graphqlHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if a.cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	chain := middleware.LoggingMiddleware(a.logger)(mux)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	a.server = &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", slog.String("addr", addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return a.Shutdown()
	}
}

// Shutdown stops the HTTP server and flushes telemetry.
func (a *App) Shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("shutting down")

	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx, a.logger.Logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.meterProvider != nil {
		if err := a.meterProvider.Shutdown(ctx, a.logger.Logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.loggerProvider != nil {
		if err := a.loggerProvider.Shutdown(ctx, a.logger.Logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
