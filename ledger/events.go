package ledger

// Payloads recorded in the activity trail when an event changes.

type EventCreated struct {
	EventID  string `json:"event_id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
}

type EventUpdated struct {
	EventID  string `json:"event_id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
}

type ParticipantChanged struct {
	EventID       string `json:"event_id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name,omitempty"`
}

type ExpenseAdded struct {
	EventID     string      `json:"event_id"`
	ExpenseID   string      `json:"expense_id"`
	PaidBy      string      `json:"paid_by"`
	Amount      float64     `json:"amount"`
	Description string      `json:"description"`
	SplitMethod SplitMethod `json:"split_method"`
	SplitCount  int         `json:"split_count"`
}

type ExpenseRemoved struct {
	EventID   string `json:"event_id"`
	ExpenseID string `json:"expense_id"`
}

func NewExpenseAdded(eventID string, x Expense) ExpenseAdded {
	added := ExpenseAdded{
		EventID:     eventID,
		ExpenseID:   x.ID,
		PaidBy:      x.PayerID,
		Amount:      x.Amount,
		Description: x.Description,
	}
	if x.Split != nil {
		added.SplitMethod = x.Split.Method()
		added.SplitCount = len(x.Split.participants())
	}
	return added
}
