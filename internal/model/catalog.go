package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultTotalCapacity  = 100
	defaultEarlyBirdLimit = 30
)

// TicketTypeDef is one entry of the structured type list.  A Limit of
// zero means the type has no per-date limit.
type TicketTypeDef struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Limit int             `json:"limit"`
}

// LegacyTypes carries the Early Bird / Standard fields used when no
// structured type list is configured.
type LegacyTypes struct {
	EarlyBirdPrice decimal.Decimal
	StandardPrice  decimal.Decimal
	EarlyBirdLimit int
	StandardLimit  *int // nil when unlimited
}

// TicketTypes is either a structured list or the legacy pair.  Exactly
// one side is meaningful: Structured when it is non-empty, Legacy
// otherwise.
type TicketTypes struct {
	Structured []TicketTypeDef
	Legacy     LegacyTypes
}

// IsStructured reports whether the structured type list is in force.
func (t TicketTypes) IsStructured() bool { return len(t.Structured) > 0 }

// Lookup finds a structured type definition by exact name.
func (t TicketTypes) Lookup(name string) (TicketTypeDef, bool) {
	for _, d := range t.Structured {
		if d.Name == name {
			return d, true
		}
	}
	return TicketTypeDef{}, false
}

// Known reports whether name is one of the configured type names.
func (t TicketTypes) Known(name string) bool {
	if t.IsStructured() {
		_, ok := t.Lookup(name)
		return ok
	}
	return name == TypeEarlyBird || name == TypeStandard
}

// PriceOf returns the unit price of a type, or zero when unknown.
func (t TicketTypes) PriceOf(name string) decimal.Decimal {
	if t.IsStructured() {
		if d, ok := t.Lookup(name); ok {
			return d.Price
		}
		return decimal.Zero
	}
	switch name {
	case TypeEarlyBird:
		return t.Legacy.EarlyBirdPrice
	case TypeStandard:
		return t.Legacy.StandardPrice
	}
	return decimal.Zero
}

// ShowDate is one performance with its display time label.
type ShowDate struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Catalog is the interpreted view of Settings used for capacity
// decisions and display.  It is resolved once per request.
type Catalog struct {
	TotalCapacity int
	Types         TicketTypes
	Dates         []ShowDate
}

// TimeFor returns the time label of a show date, or "" when the date is
// not in the catalog.
func (c Catalog) TimeFor(date string) string {
	for _, d := range c.Dates {
		if d.Date == date {
			return d.Time
		}
	}
	return ""
}

// HasDate reports whether date is one of the configured show dates.
func (c Catalog) HasDate(date string) bool {
	for _, d := range c.Dates {
		if d.Date == date {
			return true
		}
	}
	return false
}

// Catalog interprets the string settings.  Malformed structured JSON is
// treated as absent and the legacy fields apply; malformed numbers fall
// back to the compiled defaults.  It never fails.
func (s Settings) Catalog() Catalog {
	return Catalog{
		TotalCapacity: atoiOr(s.TotalCapacity, defaultTotalCapacity),
		Types:         s.ticketTypes(),
		Dates:         s.showDates(),
	}
}

// EarlyBirdLimitValue is the legacy early bird limit, read even when a
// structured type list is configured.
func (s Settings) EarlyBirdLimitValue() int {
	return atoiOr(s.EarlyBirdLimit, defaultEarlyBirdLimit)
}

func (s Settings) ticketTypes() TicketTypes {
	if defs := parseTypeDefs(s.TicketTypesJSON); len(defs) > 0 {
		return TicketTypes{Structured: defs}
	}
	legacy := LegacyTypes{
		EarlyBirdPrice: decimalOr(s.EarlyBirdPrice),
		StandardPrice:  decimalOr(s.StandardPrice),
		EarlyBirdLimit: s.EarlyBirdLimitValue(),
	}
	if v := strings.TrimSpace(s.StandardLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			legacy.StandardLimit = &n
		}
	}
	return TicketTypes{Legacy: legacy}
}

func (s Settings) showDates() []ShowDate {
	if raw := strings.TrimSpace(s.ShowDatesJSON); raw != "" {
		var defs []struct {
			Date string `json:"date"`
			Time string `json:"time"`
		}
		if err := json.Unmarshal([]byte(raw), &defs); err == nil {
			out := make([]ShowDate, 0, len(defs))
			for _, d := range defs {
				if date := strings.TrimSpace(d.Date); date != "" {
					out = append(out, ShowDate{Date: date, Time: strings.TrimSpace(d.Time)})
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	out := []ShowDate{}
	for _, d := range strings.Split(s.ShowDates, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, ShowDate{Date: d, Time: s.ShowTimes})
		}
	}
	return out
}

// parseTypeDefs decodes the structured type list.  A list that does not
// decode yields nil.  Within a decodable list an entry whose limit is
// missing or unreadable is kept with no limit.
func parseTypeDefs(raw string) []TicketTypeDef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var entries []struct {
		Name  string          `json:"name"`
		Price json.RawMessage `json:"price"`
		Limit json.RawMessage `json:"limit"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	defs := make([]TicketTypeDef, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, TicketTypeDef{
			Name:  e.Name,
			Price: decimalOr(scalarText(e.Price)),
			Limit: atoiOr(scalarText(e.Limit), 0),
		})
	}
	return defs
}

// scalarText turns a JSON number or string into its text form.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func atoiOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

func decimalOr(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
