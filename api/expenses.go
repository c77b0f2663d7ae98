package api

import (
	"net/http"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
	"github.com/go-chi/chi/v5"
)

type splitRequest struct {
	ParticipantID string   `json:"participantId" validate:"required"`
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	Percent       *float64 `json:"percent" validate:"omitempty,gte=0"`
}

type addExpenseRequest struct {
	Description string         `json:"description" validate:"required,max=200"`
	Amount      float64        `json:"amount" validate:"gt=0"`
	PayerID     string         `json:"payerId" validate:"required"`
	SplitMethod string         `json:"splitMethod" validate:"required,oneof=equal percent custom"`
	Splits      []splitRequest `json:"splits" validate:"dive"`
}

type addExpenseResponse struct {
	Expense  ledger.Expense `json:"expense"`
	Warnings []string       `json:"warnings"`
}

func (req addExpenseRequest) input() (ledger.NewExpenseInput, error) {
	entries := make([]ledger.ExpenseSplit, len(req.Splits))
	for i, s := range req.Splits {
		entries[i] = ledger.ExpenseSplit{ParticipantID: s.ParticipantID, Amount: s.Amount, Percent: s.Percent}
	}
	split, err := ledger.DecodeSplit(ledger.SplitMethod(req.SplitMethod), entries)
	if err != nil {
		return ledger.NewExpenseInput{}, err
	}
	return ledger.NewExpenseInput{
		Description: req.Description,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		Split:       split,
	}, nil
}

func (a *API) addExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	in, err := req.input()
	if err != nil {
		a.writeError(w, err)
		return
	}

	event := currentEvent(r)
	_, expense, err := event.AddExpense(in)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.store.SaveExpense(r.Context(), event.ID, expense); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeExpenseAdded, event.ID, ledger.NewExpenseAdded(event.ID, expense))

	warnings := ledger.SplitWarnings(expense)
	if warnings == nil {
		warnings = []string{}
	}
	middleware.JSON(w, http.StatusCreated, addExpenseResponse{Expense: expense, Warnings: warnings})
}

func (a *API) removeExpense(w http.ResponseWriter, r *http.Request) {
	event := currentEvent(r)
	expenseID := chi.URLParam(r, "expenseID")

	if _, err := event.RemoveExpense(expenseID); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.store.DeleteExpense(r.Context(), event.ID, expenseID); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeExpenseRemoved, event.ID, ledger.ExpenseRemoved{EventID: event.ID, ExpenseID: expenseID})
	w.WriteHeader(http.StatusNoContent)
}
