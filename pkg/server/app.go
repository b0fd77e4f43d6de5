package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"CrashRadar/internal/middleware"
	"CrashRadar/pkg/config"
	xhttp "CrashRadar/pkg/http"
	applogger "CrashRadar/pkg/logger"
)

// App encapsulates the service lifecycle: HTTP server, event pipeline and
// the infrastructure clients that need closing on shutdown.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *middleware.EventPipeline
	closers    []io.Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handlers []xhttp.Handler,
	pipeline *middleware.EventPipeline,
	closers ...io.Closer,
) *App {
	srv := xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath(cfg)),
		xhttp.WithLogger(logger),
	)
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: srv,
		pipeline:   pipeline,
		closers:    closers,
	}
}

func metricsPath(cfg *config.Config) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	return cfg.Metrics.Path
}

// Server exposes the HTTP server, mainly for tests.
func (a *App) Server() *xhttp.Server { return a.httpServer }

// Run starts the application and blocks until ctx is done or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if a.pipeline != nil {
		a.pipeline.Start(context.WithoutCancel(ctx))
	}
	listenErr := a.httpServer.Start()
	a.logger.Info("crashradar started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("host", a.cfg.Server.Host),
		applogger.Int("port", a.cfg.Server.Port),
	)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err, ok := <-listenErr:
		if ok && err != nil {
			a.logger.Error("http server failed", applogger.Error(err))
			return errors.Join(err, a.Shutdown(context.Background()))
		}
	}
	return a.Shutdown(context.Background())
}

// Shutdown stops the HTTP server, flushes pending events and closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	// the collector publishes through the same producer the pipeline closes
	a.logger.RemoveCollector()
	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			a.logger.Warn("event pipeline close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
