package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/middleware"
	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/service"
	"github.com/iliyamo/theatre-ticketing/internal/utils"
)

// AdminHandler serves the key-protected endpoints.  Every route is
// behind middleware.AdminAuth and a RequireRole check, so handlers only
// read the caller identity from the context.
type AdminHandler struct {
	Settings     *service.SettingsResolver
	Tickets      *service.TicketAdmin
	CheckIn      *service.CheckIn
	Audit        *service.AuditRecorder
	Summary      *service.Summary
	JWTSecret    string        // signs role tokens; empty disables them
	RoleTokenTTL time.Duration // lifetime of issued role tokens
	Log          logrus.FieldLogger
}

// loginDetails is the audit detail recorded for each tier on ping.
var loginDetails = map[string]string{
	model.AccessDashboard: "Logged in as Admin (full access)",
	model.AccessFinance:   "Logged in as Finance (view only)",
	model.AccessScanner:   "Logged in as Scanner (view only)",
	model.AccessBackstage: "Logged in to Backstage",
}

// Ping handles GET /api/admin/ping.  It tells the admin UI which tier the
// presented key grants, records a login entry and, when a signing secret
// is configured, returns a role token usable instead of the key.
func (h *AdminHandler) Ping(c echo.Context) error {
	tier := middleware.AccessTier(c)
	ctx := c.Request().Context()
	h.Audit.Record(ctx, middleware.AuditRole(c), model.ActionLogin, loginDetails[tier])
	resp := echo.Map{"ok": true, "role": tier}
	if h.JWTSecret != "" {
		tok, err := utils.NewRoleToken(h.JWTSecret, tier, h.RoleTokenTTL)
		if err != nil {
			h.Log.WithError(err).Warn("failed to sign role token")
		} else {
			resp["token"] = tok.Token
			resp["expires_at"] = tok.Exp.Format(time.RFC3339)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ListTickets handles GET /api/admin/tickets.
func (h *AdminHandler) ListTickets(c echo.Context) error {
	out, err := h.Tickets.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Receipt handles GET /api/admin/receipt/:id.
func (h *AdminHandler) Receipt(c echo.Context) error {
	t, err := h.Tickets.Receipt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":        t.ID,
		"receipt_data":     t.ReceiptData,
		"receipt_filename": t.ReceiptFilename,
	})
}

// UpdateTicket handles PATCH /api/admin/tickets/:id.
func (h *AdminHandler) UpdateTicket(c echo.Context) error {
	var u service.TicketUpdate
	if err := json.NewDecoder(c.Request().Body).Decode(&u); err != nil {
		return badBody(c)
	}
	t, err := h.Tickets.Update(c.Request().Context(), middleware.AuditRole(c), c.Param("id"), u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTicket handles DELETE /api/admin/tickets/:id.
func (h *AdminHandler) DeleteTicket(c echo.Context) error {
	if err := h.Tickets.Delete(c.Request().Context(), middleware.AuditRole(c), c.Param("id")); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateSettings handles PUT /api/admin/settings.  The body maps setting
// keys to values of any JSON type; each is stored as a string.  Unknown
// keys are ignored.  The full effective settings are returned.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return badBody(c)
	}
	changes := make(map[string]string, len(raw))
	for k, v := range raw {
		changes[k] = settingValue(v)
	}
	s, err := h.Settings.Update(c.Request().Context(), middleware.AuditRole(c), changes)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s.Map())
}

// settingValue renders a JSON value as the stored string: strings
// unquoted, null as empty, anything else as its compact JSON text.
func settingValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}

type checkInRequest struct {
	TicketID string `json:"ticket_id"`
}

// CheckInTicket handles POST /api/admin/checkin.  It answers 200 with
// {success, message, ticket}, 404 for an unknown id and 409 with the
// original time for a repeat scan.
func (h *AdminHandler) CheckInTicket(c echo.Context) error {
	var req checkInRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.CheckIn.CheckIn(c.Request().Context(), middleware.AuditRole(c), strings.TrimSpace(req.TicketID))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": res.Message, "ticket": res.Ticket})
}

// AuditLog handles GET /api/admin/audit?limit=N, newest first.
func (h *AdminHandler) AuditLog(c echo.Context) error {
	limit := service.DefaultAuditLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	entries, err := h.Audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}

// FinanceSummary handles GET /api/admin/summary.
func (h *AdminHandler) FinanceSummary(c echo.Context) error {
	out, err := h.Summary.Build(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}
