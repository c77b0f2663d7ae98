package ledger

import (
	"slices"

	"github.com/shopspring/decimal"
)

// SplitMethod names how an expense is divided.
type SplitMethod string

const (
	SplitEqual   SplitMethod = "equal"
	SplitPercent SplitMethod = "percent"
	SplitCustom  SplitMethod = "custom"
)

// Valid reports whether m is one of the known methods.
func (m SplitMethod) Valid() bool {
	switch m {
	case SplitEqual, SplitPercent, SplitCustom:
		return true
	}
	return false
}

// Split decides how an expense total is divided. It is implemented only by
// EqualSplit, PercentSplit and CustomSplit.
type Split interface {
	Method() SplitMethod
	// shares returns each listed participant's debit, in recorded order.
	shares(total decimal.Decimal) []share
	participants() []string
	without(participantID string) Split
	remap(ids map[string]string) Split
	validate() error
	clone() Split
}

type share struct {
	participantID string
	amount        decimal.Decimal
}

// Portion is one participant's recorded value: a percent for PercentSplit,
// an amount for CustomSplit.
type Portion struct {
	ParticipantID string
	Value         float64
}

// EqualSplit divides the total evenly among ParticipantIDs.
type EqualSplit struct {
	ParticipantIDs []string
}

// PercentSplit divides the total by each portion's share of the percent sum.
type PercentSplit struct {
	Portions []Portion
}

// CustomSplit divides the total in proportion to recorded amounts.
type CustomSplit struct {
	Portions []Portion
}

// Method reports the split's method.
func (EqualSplit) Method() SplitMethod { return SplitEqual }

// Method reports the split's method.
func (PercentSplit) Method() SplitMethod { return SplitPercent }

// Method reports the split's method.
func (CustomSplit) Method() SplitMethod { return SplitCustom }

func (s EqualSplit) shares(total decimal.Decimal) []share {
	if len(s.ParticipantIDs) == 0 {
		return nil
	}
	each := total.Div(decimal.NewFromInt(int64(len(s.ParticipantIDs))))
	out := make([]share, len(s.ParticipantIDs))
	for i, id := range s.ParticipantIDs {
		out[i] = share{participantID: id, amount: each}
	}
	return out
}

// Percents are normalized against their own sum, so they need not add up
// to 100. A zero sum falls back to 100 and every share becomes zero.
func (s PercentSplit) shares(total decimal.Decimal) []share {
	sum := sumPortions(s.Portions)
	if sum.IsZero() {
		sum = decimal.NewFromInt(100)
	}
	out := make([]share, len(s.Portions))
	for i, p := range s.Portions {
		out[i] = share{
			participantID: p.ParticipantID,
			amount:        total.Mul(decimal.NewFromFloat(p.Value).Div(sum)),
		}
	}
	return out
}

// Recorded amounts are rescaled to the expense total. When they sum to zero
// the factor is 1, every share is zero and the total goes undistributed.
func (s CustomSplit) shares(total decimal.Decimal) []share {
	sum := sumPortions(s.Portions)
	factor := decimal.NewFromInt(1)
	if !sum.IsZero() {
		factor = total.Div(sum)
	}
	out := make([]share, len(s.Portions))
	for i, p := range s.Portions {
		out[i] = share{
			participantID: p.ParticipantID,
			amount:        decimal.NewFromFloat(p.Value).Mul(factor),
		}
	}
	return out
}

func sumPortions(ps []Portion) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(decimal.NewFromFloat(p.Value))
	}
	return sum
}

func (s EqualSplit) participants() []string   { return slices.Clone(s.ParticipantIDs) }
func (s PercentSplit) participants() []string { return portionIDs(s.Portions) }
func (s CustomSplit) participants() []string  { return portionIDs(s.Portions) }

func portionIDs(ps []Portion) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ParticipantID
	}
	return ids
}

func (s EqualSplit) without(id string) Split {
	ids := slices.DeleteFunc(slices.Clone(s.ParticipantIDs), func(x string) bool { return x == id })
	return EqualSplit{ParticipantIDs: ids}
}

func (s PercentSplit) without(id string) Split {
	return PercentSplit{Portions: dropPortion(s.Portions, id)}
}

func (s CustomSplit) without(id string) Split {
	return CustomSplit{Portions: dropPortion(s.Portions, id)}
}

func dropPortion(ps []Portion, id string) []Portion {
	return slices.DeleteFunc(slices.Clone(ps), func(p Portion) bool { return p.ParticipantID == id })
}

func (s EqualSplit) remap(ids map[string]string) Split {
	out := make([]string, len(s.ParticipantIDs))
	for i, id := range s.ParticipantIDs {
		out[i] = renamed(ids, id)
	}
	return EqualSplit{ParticipantIDs: out}
}

func (s PercentSplit) remap(ids map[string]string) Split {
	return PercentSplit{Portions: remapPortions(s.Portions, ids)}
}

func (s CustomSplit) remap(ids map[string]string) Split {
	return CustomSplit{Portions: remapPortions(s.Portions, ids)}
}

func remapPortions(ps []Portion, ids map[string]string) []Portion {
	out := make([]Portion, len(ps))
	for i, p := range ps {
		out[i] = Portion{ParticipantID: renamed(ids, p.ParticipantID), Value: p.Value}
	}
	return out
}

// renamed keeps ids with no mapping as they are.
func renamed(ids map[string]string, id string) string {
	if to, ok := ids[id]; ok {
		return to
	}
	return id
}

func (s EqualSplit) validate() error   { return nil }
func (s PercentSplit) validate() error { return validatePortions(s.Portions) }
func (s CustomSplit) validate() error  { return validatePortions(s.Portions) }

func validatePortions(ps []Portion) error {
	for _, p := range ps {
		if p.Value < 0 {
			return ErrNegativeShare
		}
	}
	return nil
}

func (s EqualSplit) clone() Split   { return EqualSplit{ParticipantIDs: slices.Clone(s.ParticipantIDs)} }
func (s PercentSplit) clone() Split { return PercentSplit{Portions: slices.Clone(s.Portions)} }
func (s CustomSplit) clone() Split  { return CustomSplit{Portions: slices.Clone(s.Portions)} }

// SplitParticipants lists the participant ids an expense is split over.
func SplitParticipants(s Split) []string {
	if s == nil {
		return nil
	}
	return s.participants()
}
