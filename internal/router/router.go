package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/theatre-ticketing/internal/handler" // import the handlers
)

// SettingsPath is the route of the public settings snapshot.  Its cached
// responses are purged whenever the settings change.
const SettingsPath = "/api/settings"

// RegisterRoutes registers the operational routes: liveness checks and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.APIHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the unauthenticated booking endpoints.  The
// settings snapshot and QR images are served through cache middleware
// built with the given TTLs; registration goes through the rate limiter.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, settingsCache, qrCache, registerLimit echo.MiddlewareFunc) {
	e.GET(SettingsPath, p.GetSettings, settingsCache)
	e.GET("/api/availability", p.GetAvailability)
	e.POST("/api/register", p.Register, registerLimit)
	e.GET("/api/ticket/:id/qr", p.TicketQR, qrCache)
}
