package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables used by the service.  show_date_locks holds
// one row per show date; registrations lock it to serialize capacity
// checks for that date.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
		ticket_id        VARCHAR(64)  NOT NULL PRIMARY KEY,
		name             VARCHAR(255) NOT NULL,
		email            VARCHAR(255) NOT NULL,
		phone            VARCHAR(64)  NOT NULL,
		ticket_type      VARCHAR(64)  NOT NULL,
		show_date        VARCHAR(32)  NOT NULL,
		quantity         INT          NOT NULL DEFAULT 1,
		receipt_data     LONGTEXT     NULL,
		receipt_filename VARCHAR(255) NULL,
		payment_status   VARCHAR(32)  NOT NULL DEFAULT 'pending',
		checked_in       BOOLEAN      NOT NULL DEFAULT FALSE,
		checked_in_at    DATETIME     NULL,
		created_at       DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_date_type (show_date, ticket_type),
		KEY idx_tickets_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS settings (
		setting_key VARCHAR(64) NOT NULL PRIMARY KEY,
		value       MEDIUMTEXT  NULL,
		updated_at  DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		role       VARCHAR(32)     NOT NULL,
		action     VARCHAR(32)     NOT NULL,
		detail     TEXT            NULL,
		KEY idx_audit_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS show_date_locks (
		show_date VARCHAR(32) NOT NULL PRIMARY KEY
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
