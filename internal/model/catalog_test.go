package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsLegacy(t *testing.T) {
	cat := DefaultSettings().Catalog()

	assert.Equal(t, 100, cat.TotalCapacity)
	assert.False(t, cat.Types.IsStructured())
	assert.Equal(t, 30, cat.Types.Legacy.EarlyBirdLimit)
	assert.Nil(t, cat.Types.Legacy.StandardLimit, "empty standard_limit means unlimited")
	assert.Equal(t, []ShowDate{
		{Date: "2026-04-19", Time: "4.00pm-6.30pm"},
		{Date: "2026-04-26", Time: "4.00pm-6.30pm"},
	}, cat.Dates)
	assert.True(t, decimal.NewFromInt(25).Equal(cat.Types.PriceOf(TypeEarlyBird)))
	assert.True(t, cat.Types.PriceOf("VIP").IsZero())
}

func TestStructuredTypes(t *testing.T) {
	s := DefaultSettings().Merge(map[string]string{
		KeyTicketTypesJSON: `[{"name":"VIP","price":"80.50","limit":"5"},{"name":"Student","price":15,"limit":null},{"name":"Crew","price":0,"limit":"lots"}]`,
	})
	types := s.Catalog().Types

	require.True(t, types.IsStructured())
	vip, ok := types.Lookup("VIP")
	require.True(t, ok)
	assert.Equal(t, 5, vip.Limit)
	assert.Equal(t, "80.5", vip.Price.String())

	student, _ := types.Lookup("Student")
	assert.Zero(t, student.Limit)
	crew, _ := types.Lookup("Crew")
	assert.Zero(t, crew.Limit, "unreadable limit means no limit")

	_, ok = types.Lookup("vip")
	assert.False(t, ok, "lookup is exact")
}

func TestMalformedJSONFallsBackToLegacy(t *testing.T) {
	s := DefaultSettings().Merge(map[string]string{
		KeyTicketTypesJSON: `[{"name":`,
		KeyShowDatesJSON:   `not json`,
		KeyTotalCapacity:   "abc",
		KeyStandardLimit:   "40",
	})
	cat := s.Catalog()

	assert.False(t, cat.Types.IsStructured())
	assert.Equal(t, 100, cat.TotalCapacity)
	require.NotNil(t, cat.Types.Legacy.StandardLimit)
	assert.Equal(t, 40, *cat.Types.Legacy.StandardLimit)
	assert.Len(t, cat.Dates, 2)
}

func TestShowDatesJSONOverridesLegacyList(t *testing.T) {
	s := DefaultSettings().Merge(map[string]string{
		KeyShowDatesJSON: `[{"date":"2026-05-01","time":"8pm"},{"date":" ","time":"x"},{"date":"2026-05-02","time":"3pm"}]`,
	})
	cat := s.Catalog()

	assert.Equal(t, []ShowDate{{Date: "2026-05-01", Time: "8pm"}, {Date: "2026-05-02", Time: "3pm"}}, cat.Dates)
	assert.Equal(t, "3pm", cat.TimeFor("2026-05-02"))
	assert.Equal(t, "", cat.TimeFor("2026-04-19"))
}

func TestSettingsMergeAndMarshal(t *testing.T) {
	s := DefaultSettings().Merge(map[string]string{KeyEventName: "Hamlet", "bogus": "x"})

	assert.Equal(t, "Hamlet", s.EventName)
	assert.True(t, IsSettingKey(KeyContactPhone))
	assert.False(t, IsSettingKey("bogus"))

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, len(SettingKeys))
	assert.Equal(t, "Hamlet", m[KeyEventName])
	assert.Equal(t, "100", m[KeyTotalCapacity], "numbers stay strings")
}

func TestAuditRoleFor(t *testing.T) {
	assert.Equal(t, RoleAdmin, AuditRoleFor(AccessDashboard))
	assert.Equal(t, RoleFinance, AuditRoleFor(AccessFinance))
	assert.Equal(t, RoleScanner, AuditRoleFor(AccessScanner))
	assert.Equal(t, RoleAdmin, AuditRoleFor(AccessBackstage))
}
