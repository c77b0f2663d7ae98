package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpenseSplit is the wire form of one split entry. Amount is set for
// custom splits, Percent for percent splits, neither for equal splits.
type ExpenseSplit struct {
	ParticipantID string   `json:"participantId"`
	Amount        *float64 `json:"amount,omitempty"`
	Percent       *float64 `json:"percent,omitempty"`
}

type expenseJSON struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	PayerID     string         `json:"payerId"`
	SplitMethod SplitMethod    `json:"splitMethod"`
	Splits      []ExpenseSplit `json:"splits"`
	CreatedAt   int64          `json:"createdAt"` // unix milliseconds
}

func (x Expense) MarshalJSON() ([]byte, error) {
	out := expenseJSON{
		ID:          x.ID,
		Description: x.Description,
		Amount:      x.Amount,
		PayerID:     x.PayerID,
		Splits:      []ExpenseSplit{},
		CreatedAt:   x.CreatedAt.UnixMilli(),
	}
	if x.Split != nil {
		out.SplitMethod = x.Split.Method()
		out.Splits = EncodeSplit(x.Split)
	}
	return json.Marshal(out)
}

func (x *Expense) UnmarshalJSON(data []byte) error {
	var in expenseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	split, err := DecodeSplit(in.SplitMethod, in.Splits)
	if err != nil {
		return fmt.Errorf("expense %q: %w", in.ID, err)
	}

	*x = Expense{
		ID:          in.ID,
		Description: in.Description,
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		Split:       split,
		CreatedAt:   time.UnixMilli(in.CreatedAt).UTC(),
	}
	return nil
}

// EncodeSplit flattens a split into its recorded entries.
func EncodeSplit(s Split) []ExpenseSplit {
	switch v := s.(type) {
	case EqualSplit:
		out := make([]ExpenseSplit, len(v.ParticipantIDs))
		for i, id := range v.ParticipantIDs {
			out[i] = ExpenseSplit{ParticipantID: id}
		}
		return out
	case PercentSplit:
		out := make([]ExpenseSplit, len(v.Portions))
		for i, p := range v.Portions {
			out[i] = ExpenseSplit{ParticipantID: p.ParticipantID, Percent: float64Ptr(p.Value)}
		}
		return out
	case CustomSplit:
		out := make([]ExpenseSplit, len(v.Portions))
		for i, p := range v.Portions {
			out[i] = ExpenseSplit{ParticipantID: p.ParticipantID, Amount: float64Ptr(p.Value)}
		}
		return out
	}
	return []ExpenseSplit{}
}

// DecodeSplit builds the split variant for method. A missing percent or
// amount reads as zero.
func DecodeSplit(method SplitMethod, entries []ExpenseSplit) (Split, error) {
	switch method {
	case SplitEqual:
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ParticipantID
		}
		return EqualSplit{ParticipantIDs: ids}, nil
	case SplitPercent:
		ps := make([]Portion, len(entries))
		for i, e := range entries {
			ps[i] = Portion{ParticipantID: e.ParticipantID, Value: valueOf(e.Percent)}
		}
		return PercentSplit{Portions: ps}, nil
	case SplitCustom:
		ps := make([]Portion, len(entries))
		for i, e := range entries {
			ps[i] = Portion{ParticipantID: e.ParticipantID, Value: valueOf(e.Amount)}
		}
		return CustomSplit{Portions: ps}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSplitMethod, method)
}

func float64Ptr(v float64) *float64 { return &v }

func valueOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
