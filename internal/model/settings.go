package model

import "encoding/json"

// Recognised setting keys.  Only these keys are ever persisted; anything
// else in an update request is dropped.
const (
	KeyEventName        = "event_name"
	KeyEventSubtitle    = "event_subtitle"
	KeyEventDescription = "event_description"
	KeyShowDates        = "show_dates"
	KeyShowTimes        = "show_times"
	KeyEarlyBirdPrice   = "early_bird_price"
	KeyStandardPrice    = "standard_price"
	KeyEarlyBirdLimit   = "early_bird_limit"
	KeyStandardLimit    = "standard_limit"
	KeyTotalCapacity    = "total_capacity"
	KeyTicketTypesJSON  = "ticket_types_json"
	KeyShowDatesJSON    = "show_dates_json"
	KeyDuitNowName      = "duitnow_name"
	KeyDuitNowID        = "duitnow_id"
	KeyDuitNowQR        = "duitnow_qr"
	KeyContactName      = "contact_name"
	KeyContactPhone     = "contact_phone"
)

// SettingKeys lists every recognised key in display order.
var SettingKeys = []string{
	KeyEventName, KeyEventSubtitle, KeyEventDescription,
	KeyShowDates, KeyShowTimes,
	KeyEarlyBirdPrice, KeyStandardPrice, KeyEarlyBirdLimit, KeyStandardLimit, KeyTotalCapacity,
	KeyTicketTypesJSON, KeyShowDatesJSON,
	KeyDuitNowName, KeyDuitNowID, KeyDuitNowQR,
	KeyContactName, KeyContactPhone,
}

// Settings is the effective event configuration.  Every value is kept as
// a string, exactly as stored, even when it is numeric or JSON encoded;
// Catalog interprets them.
type Settings struct {
	EventName        string
	EventSubtitle    string
	EventDescription string
	ShowDates        string // comma-separated ISO dates
	ShowTimes        string // time label shared by all legacy dates
	EarlyBirdPrice   string
	StandardPrice    string
	EarlyBirdLimit   string
	StandardLimit    string // empty means unlimited
	TotalCapacity    string
	TicketTypesJSON  string // [{name,price,limit}], overrides the legacy type fields
	ShowDatesJSON    string // [{date,time}], overrides show_dates + show_times
	DuitNowName      string
	DuitNowID        string
	DuitNowQR        string // data URL of the bank-transfer QR image
	ContactName      string
	ContactPhone     string
}

// DefaultSettings returns the compiled-in defaults.
func DefaultSettings() Settings {
	return Settings{
		EventName:        "Immersive Theatre Experience",
		EventSubtitle:    "Reserve Your Place",
		EventDescription: "Complete the form, pay, and upload your receipt to confirm your booking.",
		ShowDates:        "2026-04-19,2026-04-26",
		ShowTimes:        "4.00pm-6.30pm",
		EarlyBirdPrice:   "25",
		StandardPrice:    "30",
		EarlyBirdLimit:   "30",
		StandardLimit:    "",
		TotalCapacity:    "100",
		TicketTypesJSON:  "",
		ShowDatesJSON:    "",
		DuitNowName:      "YOUR NAME / ORGANISATION",
		DuitNowID:        "01X-XXX XXXX",
		DuitNowQR:        "",
		ContactName:      "",
		ContactPhone:     "",
	}
}

func (s *Settings) field(key string) *string {
	switch key {
	case KeyEventName:
		return &s.EventName
	case KeyEventSubtitle:
		return &s.EventSubtitle
	case KeyEventDescription:
		return &s.EventDescription
	case KeyShowDates:
		return &s.ShowDates
	case KeyShowTimes:
		return &s.ShowTimes
	case KeyEarlyBirdPrice:
		return &s.EarlyBirdPrice
	case KeyStandardPrice:
		return &s.StandardPrice
	case KeyEarlyBirdLimit:
		return &s.EarlyBirdLimit
	case KeyStandardLimit:
		return &s.StandardLimit
	case KeyTotalCapacity:
		return &s.TotalCapacity
	case KeyTicketTypesJSON:
		return &s.TicketTypesJSON
	case KeyShowDatesJSON:
		return &s.ShowDatesJSON
	case KeyDuitNowName:
		return &s.DuitNowName
	case KeyDuitNowID:
		return &s.DuitNowID
	case KeyDuitNowQR:
		return &s.DuitNowQR
	case KeyContactName:
		return &s.ContactName
	case KeyContactPhone:
		return &s.ContactPhone
	}
	return nil
}

// IsSettingKey reports whether key is in the whitelist.
func IsSettingKey(key string) bool {
	var s Settings
	return s.field(key) != nil
}

// Get returns the value stored under key.
func (s Settings) Get(key string) (string, bool) {
	p := s.field(key)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Merge returns a copy of s with each recognised key in overrides
// replacing the current value.  Unknown keys are ignored.
func (s Settings) Merge(overrides map[string]string) Settings {
	out := s
	for k, v := range overrides {
		if p := out.field(k); p != nil {
			*p = v
		}
	}
	return out
}

// Map flattens the settings into the key/value shape served to clients.
func (s Settings) Map() map[string]string {
	m := make(map[string]string, len(SettingKeys))
	for _, k := range SettingKeys {
		m[k] = *s.field(k)
	}
	return m
}

// MarshalJSON renders the flat key/value map.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}
