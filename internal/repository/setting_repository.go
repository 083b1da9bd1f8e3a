package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingRepo persists the event setting overrides as key/value rows.
// Keys are not validated here; callers only pass whitelisted keys.
type SettingRepo struct {
	db *sql.DB
}

// NewSettingRepo returns a SettingRepo bound to the given database.
func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{db: db} }

// All returns every persisted override.  An empty table yields an empty
// map.
func (r *SettingRepo) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT setting_key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v.String
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save upserts the given rows in a single transaction.  Keys are written
// in the order supplied.
func (r *SettingRepo) Save(ctx context.Context, keys []string, values map[string]string) (err error) {
	if len(keys) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO settings (setting_key, value) VALUES (?, ?)
               ON DUPLICATE KEY UPDATE value = VALUES(value)`
	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, q, k, values[k]); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit settings update: %w", err)
	}
	return nil
}
