package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(s.config.CORSOrigins),
	}))
	s.echo.Use(ErrorHandlingMiddleware())

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.GET("/persona", s.handlePersona)

	s.echo.POST("/chat", s.handleChat)
	s.echo.GET("/chat/history/:user_id", s.handleHistory)

	s.echo.GET("/emotion/:user_id", s.handleEmotion)
	s.echo.GET("/emotion/:user_id/transitions", s.handleListTransitions)
	s.echo.POST("/emotion/:user_id/transitions", s.handleRegisterTransition)
	s.echo.GET("/emotion/:user_id/log", s.handleInteractions)

	s.echo.DELETE("/interactions", s.handleClearInteractions)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
