package api

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
)

// memStore keeps events in memory for handler tests.
type memStore struct {
	mu     sync.Mutex
	events map[string]ledger.Event
	order  []string
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string]ledger.Event)}
}

func (s *memStore) CreateEvent(_ context.Context, e ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	s.order = append(s.order, e.ID)
	return nil
}

func (s *memStore) GetEvent(_ context.Context, eventID string) (ledger.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.Event{}, ledger.ErrEventNotFound
	}
	return e, nil
}

func (s *memStore) ListEvents(_ context.Context) ([]ledger.EventInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := []ledger.EventInfo{}
	for _, id := range s.order {
		if e, ok := s.events[id]; ok {
			infos = append(infos, ledger.EventInfo{ID: e.ID, Title: e.Title, Currency: e.Currency, CreatedAt: time.Now()})
		}
	}
	return infos, nil
}

func (s *memStore) UpdateMeta(_ context.Context, eventID, title, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.ErrEventNotFound
	}
	e.Title, e.Currency = title, currency
	s.events[eventID] = e
	return nil
}

func (s *memStore) DeleteEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return ledger.ErrEventNotFound
	}
	delete(s.events, eventID)
	return nil
}

func (s *memStore) AddParticipant(_ context.Context, eventID string, p ledger.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.ErrEventNotFound
	}
	e.Participants = append(slices.Clone(e.Participants), p)
	s.events[eventID] = e
	return nil
}

func (s *memStore) RemoveParticipant(_ context.Context, eventID, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.ErrEventNotFound
	}
	updated, err := e.RemoveParticipant(participantID)
	if err != nil {
		return err
	}
	s.events[eventID] = updated
	return nil
}

func (s *memStore) SaveExpense(_ context.Context, eventID string, x ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.ErrEventNotFound
	}
	e.Expenses = append([]ledger.Expense{x}, e.Expenses...)
	s.events[eventID] = e
	return nil
}

func (s *memStore) DeleteExpense(_ context.Context, eventID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ledger.ErrEventNotFound
	}
	updated, err := e.RemoveExpense(expenseID)
	if err != nil {
		return err
	}
	s.events[eventID] = updated
	return nil
}

// captureLog stands in for both the activity worker and its recorder.
type captureLog struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (c *captureLog) Log(e activity.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func (c *captureLog) Save(_ context.Context, e activity.Entry) error {
	c.Log(e)
	return nil
}

func (c *captureLog) ListByEvent(_ context.Context, eventID string, limit int) ([]activity.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []activity.Entry{}
	for i := len(c.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if c.entries[i].EventID == eventID {
			out = append(out, c.entries[i])
		}
	}
	return out, nil
}

func (c *captureLog) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Type
	}
	return out
}
