//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/logger"
	"github.com/mirastream/mirastream/internal/provider/ratelimit"
	"github.com/mirastream/mirastream/internal/search"
)

// Server handles HTTP requests for the MiraStream API.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger

	searchService *search.Service
	resolver      StreamResolver
	logTail       *logger.Tail
	rateLimiter   *ratelimit.Limiter
}

// NewServer creates a new API server instance. resolver and logTail are
// optional; their endpoints report unavailable when unset.
func NewServer(searchService *search.Service, resolver StreamResolver, logTail *logger.Tail, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		logger:        log.With().Str("component", "api").Logger(),
		searchService: searchService,
		resolver:      resolver,
		logTail:       logTail,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// SetRateLimiter wires the provider rate limiter so the health endpoint
// can report per-provider query budgets.
func (s *Server) SetRateLimiter(limiter *ratelimit.Limiter) {
	s.rateLimiter = limiter
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", s.handleHealth)
	api.GET("/streams", s.handleStreams)
	api.POST("/resolve", s.handleResolve)
	api.GET("/logs", s.handleLogs)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
