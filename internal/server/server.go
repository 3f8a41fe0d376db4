package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	defaultReadTimeout     = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds configuration for the gateway
type ServerConfig struct {
	Addr    string // Server bind address (e.g., ":8090")
	DevMode bool   // Include node error details in responses
	APIKey  string // Optional API key for authentication

	// RateLimit caps node-backed requests per client per second; zero disables it
	RateLimit float64
	RateBurst int

	// QueryTimeout bounds each node round trip made by a handler. The write
	// timeout is derived from it.
	QueryTimeout    time.Duration
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	Gatherer prometheus.Gatherer // Served on /metrics; defaults to the global registry
}

// ServerDeps contains dependencies required to create a new Server
type ServerDeps struct {
	Handlers *Handlers
	Config   ServerConfig
}

// Server is the read-only REST gateway in front of one sidechain node
type Server struct {
	e      *echo.Echo
	cfg    ServerConfig
	logger *logrus.Logger
}

// NewServer creates the gateway. Handlers must carry a query client.
func NewServer(deps ServerDeps) (*Server, error) {
	h := deps.Handlers
	if h == nil || h.API == nil {
		return nil, errors.New("server: handlers need a query client")
	}
	if h.Logger == nil {
		h.Logger = logrus.New()
	}

	cfg := deps.Config
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	h.DevMode = cfg.DevMode
	h.QueryTimeout = cfg.QueryTimeout

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(h.Logger))

	e.Server.ReadTimeout = cfg.ReadTimeout
	// a handler may page through a listing, so allow a few round trips
	e.Server.WriteTimeout = 3*cfg.QueryTimeout + 5*time.Second
	e.Server.IdleTimeout = 60 * time.Second

	RegisterRoutes(e, h, cfg)

	return &Server{e: e, cfg: cfg, logger: h.Logger}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.e.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("draining gateway requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.e
}

// requestLogger logs one logrus line per request
func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
				"remote":  v.RemoteIP,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Warn("gateway request failed")
			default:
				entry.Debug("gateway request")
			}
			return nil
		},
	})
}
