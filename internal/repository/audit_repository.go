package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// AuditRepo appends to and reads from the audit_log table.  Rows are
// never updated or deleted.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns an AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one entry.  The timestamp is assigned by the database.
func (r *AuditRepo) Insert(ctx context.Context, role, action, detail string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (role, action, detail) VALUES (?, ?, ?)`,
		role, action, detail)
	return err
}

// Recent returns at most limit entries, newest first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, role, action, detail FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Role, &e.Action, &detail); err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
