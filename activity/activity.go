package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeEventCreated       = "event.created"
	TypeEventUpdated       = "event.updated"
	TypeEventDeleted       = "event.deleted"
	TypeEventImported      = "event.imported"
	TypeParticipantAdded   = "participant.added"
	TypeParticipantRemoved = "participant.removed"
	TypeExpenseAdded       = "expense.added"
	TypeExpenseRemoved     = "expense.removed"
)

// Entry is one line of an event's audit trail.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	EventID   string            `json:"event_id,omitempty"`
	Type      string            `json:"type"`
	Data      any               `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EntryOption func(*Entry)

func WithType(entryType string) EntryOption {
	return func(e *Entry) {
		e.Type = entryType
	}
}

func WithEvent(eventID string) EntryOption {
	return func(e *Entry) {
		e.EventID = eventID
	}
}

func WithData(data any) EntryOption {
	return func(e *Entry) {
		e.Data = data
	}
}

func WithMetadata(key, value string) EntryOption {
	return func(e *Entry) {
		e.Metadata[key] = value
	}
}

func NewEntry(opts ...EntryOption) Entry {
	e := Entry{
		ID:        uuid.New(),
		CreatedAt: time.UnixMilli(time.Now().UnixMilli()).UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

type Recorder interface {
	Save(ctx context.Context, e Entry) error
	ListByEvent(ctx context.Context, eventID string, limit int) ([]Entry, error)
}

// Logger accepts entries without blocking the caller.
type Logger interface {
	Log(e Entry)
}
