package model

import "time"

// Audit roles recorded against each entry.
const (
	RoleAdmin   = "Admin"
	RoleFinance = "Finance"
	RoleScanner = "Scanner"
)

// Audit actions.  The vocabulary is fixed.
const (
	ActionLogin          = "login"
	ActionEditTicket     = "edit_ticket"
	ActionDeleteTicket   = "delete_ticket"
	ActionUpdateSettings = "update_settings"
	ActionCheckin        = "checkin"
)

// Access tiers granted by the admin keys.
const (
	AccessDashboard = "dashboard"
	AccessFinance   = "finance"
	AccessScanner   = "scanner"
	AccessBackstage = "backstage"
)

// AuditRoleFor maps an access tier to the role name written to the
// audit log.  Backstage sessions are attributed to Admin.
func AuditRoleFor(access string) string {
	switch access {
	case AccessFinance:
		return RoleFinance
	case AccessScanner:
		return RoleScanner
	default:
		return RoleAdmin
	}
}

// AuditEntry is one immutable row of the audit_log table.
type AuditEntry struct {
	ID        uint64    `json:"id"`        // audit_log.id
	Timestamp time.Time `json:"timestamp"` // audit_log.created_at
	Role      string    `json:"role"`      // audit_log.role
	Action    string    `json:"action"`    // audit_log.action
	Detail    string    `json:"detail"`    // audit_log.detail
}
