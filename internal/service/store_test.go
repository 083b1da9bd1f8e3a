package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/queue"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  Reserve
// holds a single mutex for the whole callback, which gives the same
// serialization as the per-date lock row.
type memStore struct {
	mu       sync.Mutex
	reserve  sync.Mutex
	tickets  map[string]*model.Ticket
	settings map[string]string
	audit    []model.AuditEntry

	auditErr    error
	settingsErr error
}

func newMemStore() *memStore {
	return &memStore{tickets: map[string]*model.Ticket{}, settings: map[string]string{}}
}

func (m *memStore) put(t model.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := t
	m.tickets[t.ID] = &cp
}

// Inventory

func (m *memStore) SoldByType(_ context.Context, ticketType, showDate string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickets {
		if t.TicketType == ticketType && t.ShowDate == showDate {
			n += t.Quantity
		}
	}
	return n, nil
}

func (m *memStore) SoldTotal(_ context.Context, showDate string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickets {
		if t.ShowDate == showDate {
			n += t.Quantity
		}
	}
	return n, nil
}

// ReservationStore

type memTx struct{ *memStore }

func (tx memTx) Insert(_ context.Context, t *model.Ticket) error {
	tx.put(*t)
	return nil
}

func (m *memStore) Reserve(_ context.Context, _ string, fn func(repository.ReservationTx) error) error {
	m.reserve.Lock()
	defer m.reserve.Unlock()
	return fn(memTx{m})
}

// TicketStore and CheckInStore

func (m *memStore) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range m.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Update(_ context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		return repository.ErrTicketNotFound
	}
	cp := *t
	m.tickets[t.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return repository.ErrTicketNotFound
	}
	delete(m.tickets, id)
	return nil
}

func (m *memStore) MarkCheckedIn(_ context.Context, id string, at time.Time) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	if t.CheckedIn {
		cp := *t
		return &cp, repository.ErrAlreadyCheckedIn
	}
	at = at.UTC()
	t.CheckedIn = true
	t.CheckedInAt = &at
	cp := *t
	return &cp, nil
}

// SalesStore

func (m *memStore) SalesBreakdown(_ context.Context) ([]repository.SalesRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := map[[2]string]*repository.SalesRow{}
	for _, t := range m.tickets {
		k := [2]string{t.ShowDate, t.TicketType}
		r, ok := idx[k]
		if !ok {
			r = &repository.SalesRow{ShowDate: t.ShowDate, TicketType: t.TicketType}
			idx[k] = r
		}
		r.Quantity += t.Quantity
		if t.PaymentStatus == model.PaymentReceiptUploaded {
			r.WithReceipts += t.Quantity
		}
	}
	out := []repository.SalesRow{}
	for _, r := range idx {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShowDate != out[j].ShowDate {
			return out[i].ShowDate < out[j].ShowDate
		}
		return out[i].TicketType < out[j].TicketType
	})
	return out, nil
}

// SettingStore

func (m *memStore) All(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settingsErr != nil {
		return nil, m.settingsErr
	}
	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, keys []string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.settings[k] = values[k]
	}
	return nil
}

// AuditStore

func (m *memStore) Insert(_ context.Context, role, action, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audit = append(m.audit, model.AuditEntry{
		ID: uint64(len(m.audit) + 1), Timestamp: time.Now().UTC(), Role: role, Action: action, Detail: detail,
	})
	return nil
}

func (m *memStore) Recent(_ context.Context, limit int) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AuditEntry{}
	for i := len(m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.audit[i])
	}
	return out, nil
}

func (m *memStore) auditEntries() []model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditEntry(nil), m.audit...)
}

// notifier records published events or fails on demand.
type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.TicketRegisteredEvent
	err    error
	panics bool
}

func (n *fakeNotifier) Publish(_ context.Context, ev queue.TicketRegisteredEvent) error {
	if n.panics {
		panic("broker exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

func (n *fakeNotifier) published() []queue.TicketRegisteredEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]queue.TicketRegisteredEvent(nil), n.events...)
}

var errBoom = errors.New("boom")

type fixture struct {
	store    *memStore
	log      *logrus.Logger
	hook     *test.Hook
	audit    *AuditRecorder
	settings *SettingsResolver
}

func newFixture(defaults model.Settings) *fixture {
	log, hook := test.NewNullLogger()
	store := newMemStore()
	audit := NewAuditRecorder(store, log)
	return &fixture{
		store:    store,
		log:      log,
		hook:     hook,
		audit:    audit,
		settings: NewSettingsResolver(defaults, store, audit, log),
	}
}

func ticket(id, date, typ string, qty int) model.Ticket {
	return model.Ticket{
		ID: id, Name: "Guest " + id, Email: id + "@example.com", Phone: "0123",
		TicketType: typ, ShowDate: date, Quantity: qty,
		PaymentStatus: model.PaymentPending, CreatedAt: time.Now().UTC(),
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
