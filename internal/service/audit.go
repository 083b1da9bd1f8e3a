package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/metrics"
	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// AuditStore is the persistence used by AuditRecorder.
type AuditStore interface {
	Insert(ctx context.Context, role, action, detail string) error
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// Audit limits for Recent.
const (
	DefaultAuditLimit = 200
	MaxAuditLimit     = 1000
)

// AuditRecorder is the only writer of the audit log.
type AuditRecorder struct {
	store AuditStore
	log   logrus.FieldLogger
}

// NewAuditRecorder returns an AuditRecorder.
func NewAuditRecorder(store AuditStore, log logrus.FieldLogger) *AuditRecorder {
	return &AuditRecorder{store: store, log: log}
}

// Record appends one entry.  It never fails: a storage error is logged
// and counted and the caller carries on, because the action being
// audited has already been committed.
func (a *AuditRecorder) Record(ctx context.Context, role, action, detail string) {
	// The request may be finishing; the write should not be cut short by it.
	ctx = context.WithoutCancel(ctx)
	if err := a.store.Insert(ctx, role, action, detail); err != nil {
		metrics.AuditFailures.Inc()
		a.log.WithError(err).WithFields(logrus.Fields{
			"role":   role,
			"action": action,
		}).Warn("audit log write failed")
	}
}

// Recent returns the newest entries.  limit is clamped to
// [1, MaxAuditLimit]; zero or negative means DefaultAuditLimit.
func (a *AuditRecorder) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	return a.store.Recent(ctx, limit)
}
