package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

func TestCheckInOnce(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	tk := ticket("abcdefghijkl", day, model.TypeStandard, 2)
	tk.Name = "Lee"
	f.store.put(tk)

	svc := NewCheckIn(f.store, f.audit, f.log)
	first := time.Date(2026, 4, 19, 15, 42, 7, 0, time.UTC)
	svc.now = func() time.Time { return first }

	res, err := svc.CheckIn(context.Background(), model.RoleScanner, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Lee!", res.Message)
	assert.True(t, res.Ticket.CheckedIn)
	require.NotNil(t, res.Ticket.CheckedInAt)
	assert.Equal(t, first, *res.Ticket.CheckedInAt)

	svc.now = func() time.Time { return first.Add(time.Hour) }
	_, err = svc.CheckIn(context.Background(), model.RoleScanner, tk.ID)
	var already *AlreadyCheckedInError
	require.ErrorAs(t, err, &already)
	assert.ErrorIs(t, err, repository.ErrAlreadyCheckedIn)
	assert.Equal(t, "Ticket already checked in at 15:42:07.", already.Error())

	stored, err := f.store.GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *stored.CheckedInAt, "repeat scan keeps the original time")

	entries := f.store.auditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.RoleScanner, entries[0].Role)
	assert.Equal(t, model.ActionCheckin, entries[0].Action)
	assert.Equal(t, "Checked in Lee (2026-04-19, Standard x2)", entries[0].Detail)
}

func TestCheckInUnknownTicket(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	svc := NewCheckIn(f.store, f.audit, f.log)

	for _, id := range []string{"", "missing"} {
		_, err := svc.CheckIn(context.Background(), model.RoleScanner, id)
		assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	}
	assert.Empty(t, f.store.auditEntries())
}
