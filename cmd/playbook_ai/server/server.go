package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/playbook-ai/playbook-ai/internal/config"
)

const (
	MetricsPath = "/metrics"

	defaultShutdownTimeout   = 15 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
)

// Server serves the application with metrics, CORS and tracing middleware.
// There is no write timeout, run event streams stay open until the run ends.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// routeAdder is implemented by applications that accept additional routes
type routeAdder interface {
	AddRoute(method string, path string, handler http.Handler) error
}

func NewServer(cfg config.ServiceConfig, app http.Handler, logger *slog.Logger) *Server {
	handler := Middleware(withMetrics(app, logger))
	handler = CorsMiddleware(handler, cfg.CORSOrigin)
	handler = otelhttp.NewHandler(handler, "playbook-ai",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method + " " + routeLabel(r.URL.Path)
		}),
	)

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = defaultReadHeaderTimeout
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// withMetrics serves the prometheus metrics next to app. Applications that
// accept routes get the metrics route themselves so it shows in their route table.
func withMetrics(app http.Handler, logger *slog.Logger) http.Handler {
	if adder, ok := app.(routeAdder); ok {
		err := adder.AddRoute(http.MethodGet, MetricsPath, promhttp.Handler())
		if err == nil {
			return app
		}
		logger.Warn("Failed to add the metrics route to the application", "error", err.Error())
	}
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.Handler())
	mux.Handle("/", app)
	return mux
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listening address and serves until ctx is done, then shuts
// down gracefully. A bind failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "address", listener.Addr().String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutdown requested")
	}
	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down server", "timeout", s.shutdownTimeout.String())
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
