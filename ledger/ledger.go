package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTitle    = "New Event"
	DefaultCurrency = "USD"
)

var (
	ErrEmptyName          = errors.New("name can't be empty")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrEmptyDescription   = errors.New("description can't be empty")
	ErrNegativeShare      = errors.New("split value can't be negative")
	ErrUnknownSplitMethod = errors.New("unknown split method")
	ErrNoSplits           = errors.New("no participants to split expense")

	ErrEventNotFound       = errors.New("event not found")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantIsPayer  = errors.New("participant paid for an expense")
)

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is the aggregate root every computation is scoped to. Methods that
// change it return a new value and leave the receiver's slices untouched.
type Event struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Currency     string        `json:"currency"`
	Participants []Participant `json:"participants"`
	Expenses     []Expense     `json:"expenses"`
}

type Expense struct {
	ID          string
	Description string
	Amount      float64 // total paid
	PayerID     string
	Split       Split
	CreatedAt   time.Time
}

// NewExpenseInput is what a caller records; ID and CreatedAt are assigned
// by NewExpense.
type NewExpenseInput struct {
	Description string
	Amount      float64
	PayerID     string
	Split       Split
}

func newID() string {
	return uuid.NewString()
}

// now is truncated to milliseconds so CreatedAt survives the wire format.
func now() time.Time {
	return time.UnixMilli(time.Now().UnixMilli()).UTC()
}

func NewEvent(title, currency string) Event {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	return Event{
		ID:           newID(),
		Title:        title,
		Currency:     currency,
		Participants: []Participant{},
		Expenses:     []Expense{},
	}
}

func (e Event) WithMeta(title, currency string) Event {
	updated := e.clone()
	if t := strings.TrimSpace(title); t != "" {
		updated.Title = t
	}
	if c := strings.TrimSpace(currency); c != "" {
		updated.Currency = c
	}
	return updated
}

func (e Event) HasParticipant(id string) bool {
	_, ok := e.Participant(id)
	return ok
}

func (e Event) Participant(id string) (Participant, bool) {
	for _, p := range e.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// PaidFor reports whether the participant is the payer of any expense.
func (e Event) PaidFor(id string) bool {
	return slices.ContainsFunc(e.Expenses, func(x Expense) bool { return x.PayerID == id })
}

func (e Event) ParticipantIDs() []string {
	ids := make([]string, len(e.Participants))
	for i, p := range e.Participants {
		ids[i] = p.ID
	}
	return ids
}

func NewParticipant(name string) (Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Participant{}, ErrEmptyName
	}
	return Participant{ID: newID(), Name: name}, nil
}

func (e Event) AddParticipant(name string) (Event, Participant, error) {
	p, err := NewParticipant(name)
	if err != nil {
		return e, Participant{}, err
	}
	updated := e.clone()
	updated.Participants = append(updated.Participants, p)
	return updated, p, nil
}

// RemoveParticipant drops the participant and every split entry that
// references it. Expense totals are left as recorded. A participant who paid
// for an expense can't be removed until that expense is.
func (e Event) RemoveParticipant(id string) (Event, error) {
	if !e.HasParticipant(id) {
		return e, ErrParticipantNotFound
	}
	if e.PaidFor(id) {
		return e, ErrParticipantIsPayer
	}
	updated := e.clone()
	updated.Participants = slices.DeleteFunc(updated.Participants, func(p Participant) bool {
		return p.ID == id
	})
	for i, exp := range updated.Expenses {
		if exp.Split != nil {
			updated.Expenses[i].Split = exp.Split.without(id)
		}
	}
	return updated, nil
}

// NewExpense validates in against the event's participants. An equal split
// with no participant ids is spread over everyone currently in the event.
func (e Event) NewExpense(in NewExpenseInput) (Expense, error) {
	if strings.TrimSpace(in.Description) == "" {
		return Expense{}, ErrEmptyDescription
	}
	if in.Amount <= 0 {
		return Expense{}, ErrInvalidAmount
	}
	if in.Split == nil {
		return Expense{}, ErrUnknownSplitMethod
	}

	split := in.Split
	if eq, ok := split.(EqualSplit); ok && len(eq.ParticipantIDs) == 0 {
		split = EqualSplit{ParticipantIDs: e.ParticipantIDs()}
	}
	if len(split.participants()) == 0 {
		return Expense{}, ErrNoSplits
	}
	if err := split.validate(); err != nil {
		return Expense{}, err
	}

	expense := Expense{
		ID:          newID(),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		Split:       split,
		CreatedAt:   now(),
	}
	if err := e.checkReferences(expense); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// AddExpense records a new expense at the front of the list, newest first.
func (e Event) AddExpense(in NewExpenseInput) (Event, Expense, error) {
	expense, err := e.NewExpense(in)
	if err != nil {
		return e, Expense{}, err
	}
	updated := e.clone()
	updated.Expenses = append([]Expense{expense}, updated.Expenses...)
	return updated, expense, nil
}

func (e Event) RemoveExpense(id string) (Event, error) {
	idx := slices.IndexFunc(e.Expenses, func(x Expense) bool { return x.ID == id })
	if idx < 0 {
		return e, ErrExpenseNotFound
	}
	updated := e.clone()
	updated.Expenses = slices.Delete(updated.Expenses, idx, idx+1)
	return updated, nil
}

// Duplicate returns a copy of the event under fresh ids for the event, its
// participants and its expenses. References between them are rewritten so
// balances come out the same.
func (e Event) Duplicate() Event {
	c := e.clone()
	c.ID = newID()

	ids := make(map[string]string, len(c.Participants))
	for i, p := range c.Participants {
		ids[p.ID] = newID()
		c.Participants[i].ID = ids[p.ID]
	}
	for i, x := range c.Expenses {
		c.Expenses[i].ID = newID()
		c.Expenses[i].PayerID = renamed(ids, x.PayerID)
		if x.Split != nil {
			c.Expenses[i].Split = x.Split.remap(ids)
		}
	}
	return c
}

// Validate applies the rules NewParticipant and NewExpense enforce to an
// event built elsewhere, such as one decoded from a share link. Empty splits
// are allowed since removing participants can leave them behind.
func (e Event) Validate() error {
	for _, p := range e.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("participant %s: %w", p.ID, ErrEmptyName)
		}
	}
	for _, x := range e.Expenses {
		if strings.TrimSpace(x.Description) == "" {
			return fmt.Errorf("expense %s: %w", x.ID, ErrEmptyDescription)
		}
		if x.Amount <= 0 {
			return fmt.Errorf("expense %s: %w", x.ID, ErrInvalidAmount)
		}
		if x.Split == nil {
			return fmt.Errorf("expense %s: %w", x.ID, ErrUnknownSplitMethod)
		}
		if err := x.Split.validate(); err != nil {
			return fmt.Errorf("expense %s: %w", x.ID, err)
		}
		if err := e.checkReferences(x); err != nil {
			return err
		}
	}
	return nil
}

func (e Event) checkReferences(x Expense) error {
	if !e.HasParticipant(x.PayerID) {
		return &ReferentialIntegrityError{ExpenseID: x.ID, ParticipantID: x.PayerID, Role: RolePayer}
	}
	if x.Split == nil {
		return nil
	}
	for _, id := range x.Split.participants() {
		if !e.HasParticipant(id) {
			return &ReferentialIntegrityError{ExpenseID: x.ID, ParticipantID: id, Role: RoleSplit}
		}
	}
	return nil
}

func (e Event) clone() Event {
	c := e
	c.Participants = slices.Clone(e.Participants)
	if c.Participants == nil {
		c.Participants = []Participant{}
	}
	c.Expenses = make([]Expense, len(e.Expenses))
	for i, x := range e.Expenses {
		c.Expenses[i] = x
		if x.Split != nil {
			c.Expenses[i].Split = x.Split.clone()
		}
	}
	return c
}
