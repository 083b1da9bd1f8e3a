package middleware

// identity.go defines helpers shared by handlers and middleware for reading
// the caller identity stored by AdminAuth.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// AccessTier returns the tier stored by AdminAuth, or "" for public
// requests.
func AccessTier(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// AuditRole returns the audit role name of the caller.  Requests that
// bypassed AdminAuth are attributed to Admin.
func AuditRole(c echo.Context) string {
	if s, ok := c.Get("audit_role").(string); ok && s != "" {
		return s
	}
	return model.RoleAdmin
}

// callerID identifies the caller for rate limiting: the access tier when
// authenticated, "anon" otherwise.
func callerID(c echo.Context) string {
	if tier := AccessTier(c); tier != "" {
		return tier
	}
	return "anon"
}
