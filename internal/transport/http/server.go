// Package http provides the HTTP server for the orchestration service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
	v1 "github.com/KraftonexStudios/hackwave-sub001/internal/transport/http/v1"
	"github.com/KraftonexStudios/hackwave-sub001/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. It carries the
// whole public surface: the v1 API and the WebSocket session feed.
func NewServer(svc *service.Service, feed *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	// Live session feed
	e.GET("/ws", feed.HandleFeed)

	return e
}
