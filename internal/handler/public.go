// Package handler exposes the HTTP handlers for the public booking API and
// the key-protected admin API.
package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/theatre-ticketing/internal/service"
)

// PublicHandler serves the unauthenticated booking endpoints.
type PublicHandler struct {
	Settings     *service.SettingsResolver
	Availability *service.Availability
	Registrar    *service.Registrar
	Log          logrus.FieldLogger
}

// GetSettings handles GET /api/settings.  It returns the effective
// settings as a flat key/value object.
func (h *PublicHandler) GetSettings(c echo.Context) error {
	s, err := h.Settings.Resolve(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s.Map())
}

// GetAvailability handles GET /api/availability, keyed by show date.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	out, err := h.Availability.ByDate(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Register handles POST /api/register.  It returns 201 with the ticket
// (receipt data omitted), 400 for invalid fields, 409 when the request
// exceeds the remaining capacity.
func (h *PublicHandler) Register(c echo.Context) error {
	var req service.RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	t, err := h.Registrar.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// qrSize is the edge length of the QR PNG in pixels.
const qrSize = 264

// TicketQR handles GET /api/ticket/:id/qr.  The PNG encodes the ticket id
// only, so it is generated without a database read; scanning an id that
// does not exist fails at check-in.
func (h *PublicHandler) TicketQR(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" || len(id) > 64 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "QR generation failed"})
	}
	png, err := qrcode.Encode(id, qrcode.Highest, qrSize)
	if err != nil {
		h.Log.WithError(err).Warn("qr generation failed")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "QR generation failed"})
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/png", png)
}
