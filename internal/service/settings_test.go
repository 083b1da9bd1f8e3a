package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

func TestResolveMergesOverridesOverDefaults(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	f.store.settings[model.KeyEventName] = "Hamlet"
	f.store.settings["legacy_key"] = "ignored"

	s, err := f.settings.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", s.EventName)
	assert.Equal(t, "100", s.TotalCapacity)
	assert.NotContains(t, s.Map(), "legacy_key")
}

func TestResolveReturnsStorageError(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	f.store.settingsErr = errBoom

	_, err := f.settings.Resolve(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	var purged int
	f.settings.OnChange(func(context.Context) { purged++ })

	s, err := f.settings.Update(context.Background(), model.RoleAdmin, map[string]string{
		model.KeyTotalCapacity: "120",
		model.KeyEventName:     "Macbeth",
		"not_a_setting":        "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "120", s.TotalCapacity)
	assert.Equal(t, "Macbeth", s.EventName)
	assert.Equal(t, 120, s.Catalog().TotalCapacity)
	assert.Equal(t, map[string]string{model.KeyTotalCapacity: "120", model.KeyEventName: "Macbeth"}, f.store.settings)
	assert.Equal(t, 1, purged)

	entries := f.store.auditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.RoleAdmin, entries[0].Role)
	assert.Equal(t, model.ActionUpdateSettings, entries[0].Action)
	assert.Equal(t, "Updated settings: event_name='Macbeth', total_capacity='120'", entries[0].Detail)
}

func TestUpdateSettingsUnchangedValueIsNotAudited(t *testing.T) {
	f := newFixture(model.DefaultSettings())
	f.store.settings[model.KeyEventName] = "Macbeth"
	var purged int
	f.settings.OnChange(func(context.Context) { purged++ })

	s, err := f.settings.Update(context.Background(), model.RoleAdmin, map[string]string{
		model.KeyEventName: "Macbeth",
		"unknown":          "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "Macbeth", s.EventName)
	assert.Empty(t, f.store.auditEntries())
	assert.Zero(t, purged)
}

func TestUpdateSettingsDefaultValueStillPersists(t *testing.T) {
	f := newFixture(model.DefaultSettings())

	_, err := f.settings.Update(context.Background(), model.RoleAdmin, map[string]string{
		model.KeyTotalCapacity: "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "100", f.store.settings[model.KeyTotalCapacity])
	assert.Len(t, f.store.auditEntries(), 1)
}
