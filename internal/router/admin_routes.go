package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-ticketing/internal/handler"
	"github.com/iliyamo/theatre-ticketing/internal/middleware"
	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// RegisterAdmin registers the key-protected endpoints under /api/admin.
// auth identifies the caller's tier; each route then admits only the
// tiers listed for it.  pingLimit throttles key guessing on the ping
// route, which every tier may call.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, auth, pingLimit echo.MiddlewareFunc) {
	const (
		dashboard = model.AccessDashboard
		finance   = model.AccessFinance
		scanner   = model.AccessScanner
		backstage = model.AccessBackstage
	)
	g := e.Group("/api/admin")

	g.GET("/ping", h.Ping, pingLimit, auth, middleware.RequireRole(dashboard, finance, scanner, backstage))

	g.GET("/tickets", h.ListTickets, auth, middleware.RequireRole(dashboard, finance, scanner))
	g.GET("/receipt/:id", h.Receipt, auth, middleware.RequireRole(dashboard, finance, scanner))
	g.GET("/summary", h.FinanceSummary, auth, middleware.RequireRole(dashboard, finance))

	g.PATCH("/tickets/:id", h.UpdateTicket, auth, middleware.RequireRole(dashboard))
	g.DELETE("/tickets/:id", h.DeleteTicket, auth, middleware.RequireRole(dashboard))
	g.PUT("/settings", h.UpdateSettings, auth, middleware.RequireRole(dashboard))

	g.POST("/checkin", h.CheckInTicket, auth, middleware.RequireRole(scanner))

	g.GET("/audit", h.AuditLog, auth, middleware.RequireRole(dashboard, backstage))
}
