package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/utils"
)

const secret = "test-secret"

func newAdminEcho(t *testing.T) *echo.Echo {
	t.Helper()
	entry := func(access, key string) utils.KeyEntry {
		h, err := utils.HashKey(key, bcrypt.MinCost)
		require.NoError(t, err)
		return utils.KeyEntry{Access: access, Hash: h}
	}
	ring := utils.NewKeyRing(
		entry(model.AccessDashboard, "dash"),
		entry(model.AccessFinance, "fin"),
		entry(model.AccessScanner, "scan"),
	)

	e := echo.New()
	g := e.Group("/api/admin", AdminAuth(ring, secret))
	g.GET("/checkin", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"tier": AccessTier(c), "audit_role": AuditRole(c)})
	}, RequireRole(model.AccessScanner))
	g.GET("/audit", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole(model.AccessDashboard, model.AccessBackstage))
	return e
}

func TestAdminAuth(t *testing.T) {
	e := newAdminEcho(t)
	tok, err := utils.NewRoleToken(secret, model.AccessScanner, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{"no credential", "/api/admin/checkin", nil, http.StatusUnauthorized, `{"error":"Invalid key"}`},
		{"unknown key", "/api/admin/checkin", map[string]string{AdminKeyHeader: "nope"}, http.StatusUnauthorized, ""},
		{"scanner key", "/api/admin/checkin", map[string]string{AdminKeyHeader: "scan"}, http.StatusOK, `{"tier":"scanner","audit_role":"Scanner"}`},
		{"finance key on scanner route", "/api/admin/checkin", map[string]string{AdminKeyHeader: "fin"}, http.StatusForbidden, ""},
		{"dashboard key on audit", "/api/admin/audit", map[string]string{AdminKeyHeader: "dash"}, http.StatusOK, ""},
		{"scanner key on audit", "/api/admin/audit", map[string]string{AdminKeyHeader: "scan"}, http.StatusForbidden, ""},
		{"role token", "/api/admin/checkin", map[string]string{"Authorization": "Bearer " + tok.Token}, http.StatusOK, ""},
		{"bad role token", "/api/admin/checkin", map[string]string{"Authorization": "Bearer junk"}, http.StatusUnauthorized, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuditRoleDefaultsToAdmin(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, model.RoleAdmin, AuditRole(c))
	assert.Equal(t, "", AccessTier(c))
	assert.Equal(t, "anon", callerID(c))
}
