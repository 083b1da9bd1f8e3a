package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/utils"
)

// AdminKeyHeader carries the raw admin key.
const AdminKeyHeader = "X-Admin-Key"

// AdminAuth returns an Echo middleware that identifies the access tier of
// the caller.  It accepts either the raw key in the X-Admin-Key header,
// matched against the bcrypt hashes in keys, or a role token previously
// issued by the ping endpoint in "Authorization: Bearer".  On success the
// tier is stored under "role" and the audit role name under
// "audit_role".  Unknown credentials get 401.
func AdminAuth(keys *utils.KeyRing, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			access, ok := "", false
			if key := c.Request().Header.Get(AdminKeyHeader); key != "" {
				access, ok = keys.Match(key)
			} else if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				if tier, err := utils.ParseRoleToken(secret, raw); err == nil {
					access, ok = tier, true
				}
			}
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid key"})
			}
			c.Set("role", access)
			c.Set("audit_role", model.AuditRoleFor(access))
			return next(c)
		}
	}
}
