// Package api exposes the dashboard over HTTP: stateless chart endpoints,
// the current selection, and journal history when the journal is enabled.
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ecfr-dashboard/internal/dashboard"
	"ecfr-dashboard/internal/store"
)

type Server struct {
	e       *echo.Echo
	loader  *dashboard.Loader
	dash    *dashboard.Dashboard
	journal *store.Store
	log     *zap.Logger
}

// New builds the HTTP API. journal may be nil, in which case the history
// and status endpoints answer 404.
func New(loader *dashboard.Loader, dash *dashboard.Dashboard, journal *store.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		e:       echo.New(),
		loader:  loader,
		dash:    dash,
		journal: journal,
		log:     log,
	}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.log.Warn("HTTP request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.log.Info("HTTP request completed", fields...)
			return nil
		},
	}))
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/titles", s.handleTitles)

	charts := api.Group("/charts")
	charts.GET("/structure", s.handleStructure)
	charts.GET("/wordcount", s.handleWordCount)
	charts.GET("/amendments", s.handleAmendments)
	charts.GET("/agencies", s.handleAgencies)

	api.GET("/dashboard", s.handleDashboard)
	api.POST("/selection", s.handleSelection)

	api.GET("/history", s.handleHistory)
	api.GET("/history/latest", s.handleLatest)
	api.GET("/status", s.handleStatus)
	api.GET("/insights/growth", s.handleGrowth)
}

// Handler returns the root handler, for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.e }
