package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

func TestAuditRecordSwallowsStoreErrors(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	f.store.auditErr = errBoom

	assert.NotPanics(t, func() {
		f.audit.Record(context.Background(), model.RoleScanner, model.ActionCheckin, "x")
	})
	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, model.ActionCheckin, entry.Data["action"])
}

func TestAuditRecordIgnoresCancelledRequest(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.audit.Record(ctx, model.RoleAdmin, model.ActionLogin, "Dashboard login")
	assert.Len(t, f.store.auditEntries(), 1)
}

func TestAuditRecentNewestFirstAndClamped(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	for _, d := range []string{"first", "second", "third"} {
		f.audit.Record(context.Background(), model.RoleAdmin, model.ActionLogin, d)
	}

	got, err := f.audit.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Detail)
	assert.Equal(t, "second", got[1].Detail)

	got, err = f.audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
