package ledger

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Epsilon is half a cent. Amounts within it of zero count as settled.
const Epsilon = 0.005

var (
	epsilon   = decimal.NewFromFloat(Epsilon)
	roundBias = decimal.New(1, -9)
	hundred   = decimal.NewFromInt(100)
	half      = decimal.New(5, -1)
)

// Balance is a participant's net position: positive means the group owes
// them, negative means they owe the group.
type Balance struct {
	ParticipantID string  `json:"participantId"`
	Amount        float64 `json:"amount"`
}

// Transfer means From pays To.
type Transfer struct {
	FromID string  `json:"fromId"`
	ToID   string  `json:"toId"`
	Amount float64 `json:"amount"`
}

// Settlement is the outcome of Settle: the non-zero balances and the
// transfers that clear them.
type Settlement struct {
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

// Round2 rounds to cents, half up, with a 1e-9 bias so values such as
// 10.005 land on 10.01.
func Round2(v float64) float64 {
	return round2(decimal.NewFromFloat(v)).InexactFloat64()
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Add(roundBias).Mul(hundred).Add(half).Floor().Div(hundred)
}

type running struct {
	participantID string
	amount        decimal.Decimal
}

// netBalances credits each payer and debits each split share, without
// rounding, in participant insertion order.
func netBalances(e Event) ([]running, error) {
	idx := make(map[string]int, len(e.Participants))
	out := make([]running, len(e.Participants))
	for i, p := range e.Participants {
		idx[p.ID] = i
		out[i] = running{participantID: p.ID, amount: decimal.Zero}
	}

	for _, x := range e.Expenses {
		if err := e.checkReferences(x); err != nil {
			return nil, err
		}
		total := decimal.NewFromFloat(x.Amount)
		out[idx[x.PayerID]].amount = out[idx[x.PayerID]].amount.Add(total)
		if x.Split == nil {
			continue
		}
		for _, s := range x.Split.shares(total) {
			out[idx[s.participantID]].amount = out[idx[s.participantID]].amount.Sub(s.amount)
		}
	}
	return out, nil
}

// ComputeBalances returns every participant whose rounded net balance is
// outside the epsilon band. A payer or split participant missing from the
// event yields a *ReferentialIntegrityError.
func ComputeBalances(e Event) ([]Balance, error) {
	net, err := netBalances(e)
	if err != nil {
		return nil, err
	}

	balances := make([]Balance, 0, len(net))
	for _, r := range net {
		amount := round2(r.amount)
		if amount.Abs().LessThanOrEqual(epsilon) {
			continue
		}
		balances = append(balances, Balance{ParticipantID: r.participantID, Amount: amount.InexactFloat64()})
	}
	return balances, nil
}

// Simplify matches the largest debtor with the largest creditor until one
// side runs out. It is a greedy heuristic, not a minimum-transfer solver.
// Balances are matched as given; only each payment is rounded to cents.
// Ties keep the input order.
func Simplify(balances []Balance) []Transfer {
	var debtors, creditors []running
	for _, b := range balances {
		amount := decimal.NewFromFloat(b.Amount)
		switch {
		case amount.LessThan(epsilon.Neg()):
			debtors = append(debtors, running{participantID: b.ParticipantID, amount: amount})
		case amount.GreaterThan(epsilon):
			creditors = append(creditors, running{participantID: b.ParticipantID, amount: amount})
		}
	}

	slices.SortStableFunc(debtors, func(a, b running) int { return a.amount.Cmp(b.amount) })
	slices.SortStableFunc(creditors, func(a, b running) int { return b.amount.Cmp(a.amount) })

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := debtors[i].amount.Neg()
		held := creditors[j].amount
		pay := round2(decimal.Min(owed, held))

		if pay.GreaterThan(epsilon) {
			transfers = append(transfers, Transfer{
				FromID: debtors[i].participantID,
				ToID:   creditors[j].participantID,
				Amount: pay.InexactFloat64(),
			})
			debtors[i].amount = debtors[i].amount.Add(pay)
			creditors[j].amount = creditors[j].amount.Sub(pay)
		}

		if debtors[i].amount.Abs().LessThanOrEqual(epsilon) {
			i++
		}
		if creditors[j].amount.Abs().LessThanOrEqual(epsilon) {
			j++
		}
	}
	return transfers
}

// Settle runs ComputeBalances and then Simplify.
func Settle(e Event) (Settlement, error) {
	balances, err := ComputeBalances(e)
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{Balances: balances, Transfers: Simplify(balances)}, nil
}
