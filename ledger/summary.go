package ledger

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

type Summary struct {
	TotalSpent       float64    `json:"total_spent"`
	TotalFormatted   string     `json:"total_formatted"`
	PerPerson        float64    `json:"per_person"`
	ExpenseCount     int        `json:"expense_count"`
	ParticipantCount int        `json:"participant_count"`
	Currency         string     `json:"currency"`
	LastExpenseAt    *time.Time `json:"last_expense_at,omitempty"`
	LastUpdate       string     `json:"last_update"`
}

// Summarize reports totals for display. PerPerson divides the total over
// every participant regardless of how expenses were split.
func Summarize(e Event, at time.Time) Summary {
	total := decimal.Zero
	var last *time.Time
	for _, x := range e.Expenses {
		total = total.Add(decimal.NewFromFloat(x.Amount))
		if last == nil || x.CreatedAt.After(*last) {
			t := x.CreatedAt
			last = &t
		}
	}

	perPerson := decimal.Zero
	if n := len(e.Participants); n > 0 {
		perPerson = total.Div(decimal.NewFromInt(int64(n)))
	}

	s := Summary{
		TotalSpent:       round2(total).InexactFloat64(),
		PerPerson:        round2(perPerson).InexactFloat64(),
		ExpenseCount:     len(e.Expenses),
		ParticipantCount: len(e.Participants),
		Currency:         e.Currency,
		LastExpenseAt:    last,
		LastUpdate:       "No expenses yet",
	}
	s.TotalFormatted = e.Currency + " " + humanize.FormatFloat("#,###.##", s.TotalSpent)
	if last != nil {
		s.LastUpdate = humanize.RelTime(*last, at, "ago", "from now")
	}
	return s
}
