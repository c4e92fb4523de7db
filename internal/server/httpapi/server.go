// Package httpapi is the web surface of feedbackhub: the public intake pages
// and the Basic-auth protected admin panel, served with echo.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

type (
	Options struct {
		Address        string
		MaxUploadBytes int64
		DisableReqLogs bool
		Logger         logging.Logger

		Institutions *services.InstitutionService
		Admins       *services.AdminService
		Intake       *services.IntakeService
		Retrieval    *services.RetrievalService
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts   *Options
		app    *echo.Echo
		logger logging.Logger
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:   opts,
		app:    echo.New(),
		logger: opts.Logger.With("module", "http"),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.logger))
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error(c.Request().Context(), "panic recovered", "error", err, "stack", string(stack))
			return err
		},
	}))
	if s.opts.MaxUploadBytes > 0 {
		s.app.Use(middleware.BodyLimit(strconv.FormatInt(s.opts.MaxUploadBytes, 10) + "B"))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.logger)
	s.app.Renderer = newRenderer()

	s.app.GET("/health", health)

	registerIntakeRoutes(s.app, s.opts.Intake, s.logger)

	admin := s.app.Group("/admin", basicAuth(s.opts.Admins))
	registerAdminRoutes(admin, s.opts, s.logger)
}

func (s *server) Start() error {
	s.logger.Info(context.Background(), "http server listening", "addr", s.opts.Address)
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String()}
			if admin, ok := c.Get(contextAdminKey).(string); ok {
				args = append(args, "admin", admin)
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}
