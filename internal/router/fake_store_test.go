package router_test

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// store is an in-memory implementation of every persistence interface
// the services depend on.
type store struct {
	mu       sync.Mutex
	tickets  map[string]model.Ticket
	order    []string
	settings map[string]string
	audit    []model.AuditEntry
}

func newStore() *store {
	return &store{tickets: map[string]model.Ticket{}, settings: map[string]string{}}
}

func (s *store) sum(match func(model.Ticket) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if match(t) {
			n += t.Quantity
		}
	}
	return n
}

func (s *store) SoldByType(_ context.Context, typ, date string) (int, error) {
	return s.sum(func(t model.Ticket) bool { return t.TicketType == typ && t.ShowDate == date }), nil
}

func (s *store) SoldTotal(_ context.Context, date string) (int, error) {
	return s.sum(func(t model.Ticket) bool { return t.ShowDate == date }), nil
}

type tx struct{ *store }

func (t tx) Insert(_ context.Context, tk *model.Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickets[tk.ID] = *tk
	t.order = append(t.order, tk.ID)
	return nil
}

func (s *store) Reserve(_ context.Context, _ string, fn func(repository.ReservationTx) error) error {
	return fn(tx{s})
}

func (s *store) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return &t, nil
}

func (s *store) List(_ context.Context) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Ticket{}
	for i := len(s.order) - 1; i >= 0; i-- {
		if t, ok := s.tickets[s.order[i]]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *store) Update(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = *t
	return nil
}

func (s *store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return repository.ErrTicketNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (s *store) MarkCheckedIn(_ context.Context, id string, at time.Time) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	if t.CheckedIn {
		return &t, repository.ErrAlreadyCheckedIn
	}
	t.CheckedIn = true
	t.CheckedInAt = &at
	s.tickets[id] = t
	return &t, nil
}

func (s *store) SalesBreakdown(_ context.Context) ([]repository.SalesRow, error) {
	return []repository.SalesRow{}, nil
}

func (s *store) All(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *store) Save(_ context.Context, keys []string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.settings[k] = values[k]
	}
	return nil
}

func (s *store) Insert(_ context.Context, role, action, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, model.AuditEntry{ID: uint64(len(s.audit) + 1), Role: role, Action: action, Detail: detail})
	return nil
}

func (s *store) Recent(_ context.Context, limit int) ([]model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AuditEntry{}
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}
