package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EventInfo is an event without its participants and expenses.
type EventInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, eventID string) (Event, error)
	ListEvents(ctx context.Context) ([]EventInfo, error)
	UpdateMeta(ctx context.Context, eventID, title, currency string) error
	DeleteEvent(ctx context.Context, eventID string) error
	AddParticipant(ctx context.Context, eventID string, p Participant) error
	RemoveParticipant(ctx context.Context, eventID, participantID string) error
	SaveExpense(ctx context.Context, eventID string, expense Expense) error
	DeleteExpense(ctx context.Context, eventID, expenseID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

// CreateEvent stores the whole aggregate. Expenses are stored oldest first
// so that reading them back newest first keeps the original order.
func (r *repository) CreateEvent(ctx context.Context, event Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO events (id, title, currency, created_at) VALUES ($1, $2, $3, $4)`
	_, err = tx.ExecContext(ctx, query, event.ID, event.Title, event.Currency, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	for i, p := range event.Participants {
		query = `INSERT INTO participants (id, event_id, name, position) VALUES ($1, $2, $3, $4)`
		_, err = tx.ExecContext(ctx, query, p.ID, event.ID, p.Name, i+1)
		if err != nil {
			return fmt.Errorf("inserting participant: %w", err)
		}
	}

	for i := len(event.Expenses) - 1; i >= 0; i-- {
		if err := insertExpense(ctx, tx, event.ID, event.Expenses[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetEvent(ctx context.Context, eventID string) (Event, error) {
	var event Event
	query := `SELECT id, title, currency FROM events WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&event.ID, &event.Title, &event.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}

	event.Participants, err = r.participants(ctx, eventID)
	if err != nil {
		return Event{}, err
	}

	event.Expenses, err = r.expenses(ctx, eventID)
	if err != nil {
		return Event{}, err
	}

	return event, nil
}

func (r *repository) participants(ctx context.Context, eventID string) ([]Participant, error) {
	query := `SELECT id, name FROM participants WHERE event_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *repository) expenses(ctx context.Context, eventID string) ([]Expense, error) {
	splits, err := r.splits(ctx, eventID)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, description, amount, payer_id, split_method, created_at
              FROM expenses
              WHERE event_id = $1
              ORDER BY seq DESC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		var (
			x         Expense
			method    SplitMethod
			createdAt int64
		)
		if err := rows.Scan(&x.ID, &x.Description, &x.Amount, &x.PayerID, &method, &createdAt); err != nil {
			return nil, err
		}
		x.CreatedAt = time.UnixMilli(createdAt).UTC()
		x.Split, err = DecodeSplit(method, splits[x.ID])
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, x)
	}
	return expenses, rows.Err()
}

func (r *repository) splits(ctx context.Context, eventID string) (map[string][]ExpenseSplit, error) {
	query := `SELECT s.expense_id, s.participant_id, s.amount, s.percent
              FROM expense_splits s
              INNER JOIN expenses e ON s.expense_id = e.id
              WHERE e.event_id = $1
              ORDER BY s.expense_id, s.position`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	splits := make(map[string][]ExpenseSplit)
	for rows.Next() {
		var (
			expenseID       string
			split           ExpenseSplit
			amount, percent sql.NullFloat64
		)
		if err := rows.Scan(&expenseID, &split.ParticipantID, &amount, &percent); err != nil {
			return nil, err
		}
		if amount.Valid {
			split.Amount = float64Ptr(amount.Float64)
		}
		if percent.Valid {
			split.Percent = float64Ptr(percent.Float64)
		}
		splits[expenseID] = append(splits[expenseID], split)
	}
	return splits, rows.Err()
}

func (r *repository) ListEvents(ctx context.Context) ([]EventInfo, error) {
	query := `SELECT id, title, currency, created_at FROM events ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []EventInfo{}
	for rows.Next() {
		var (
			info      EventInfo
			createdAt int64
		)
		if err := rows.Scan(&info.ID, &info.Title, &info.Currency, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, info)
	}
	return events, rows.Err()
}

func (r *repository) UpdateMeta(ctx context.Context, eventID, title, currency string) error {
	query := `UPDATE events SET title = $1, currency = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, title, currency, eventID)
	if err != nil {
		return err
	}
	return expectRow(res, ErrEventNotFound)
}

func (r *repository) DeleteEvent(ctx context.Context, eventID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM expense_splits WHERE expense_id IN (SELECT id FROM expenses WHERE event_id = $1)`,
		`DELETE FROM expenses WHERE event_id = $1`,
		`DELETE FROM participants WHERE event_id = $1`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, eventID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return err
	}
	if err := expectRow(res, ErrEventNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) AddParticipant(ctx context.Context, eventID string, p Participant) error {
	query := `INSERT INTO participants (id, event_id, name, position)
              VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), 0) + 1 FROM participants WHERE event_id = $2))`
	_, err := r.db.ExecContext(ctx, query, p.ID, eventID, p.Name)
	if err != nil {
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes the participant and its split rows together.
func (r *repository) RemoveParticipant(ctx context.Context, eventID, participantID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `DELETE FROM expense_splits
              WHERE participant_id = $1
              AND expense_id IN (SELECT id FROM expenses WHERE event_id = $2)`
	if _, err := tx.ExecContext(ctx, query, participantID, eventID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = $1 AND event_id = $2`, participantID, eventID)
	if err != nil {
		return err
	}
	if err := expectRow(res, ErrParticipantNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) SaveExpense(ctx context.Context, eventID string, expense Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, eventID, expense); err != nil {
		return err
	}

	return tx.Commit()
}

func insertExpense(ctx context.Context, tx *sql.Tx, eventID string, expense Expense) error {
	var method SplitMethod
	if expense.Split != nil {
		method = expense.Split.Method()
	}

	query := `INSERT INTO expenses (id, event_id, description, amount, payer_id, split_method, created_at, seq)
              VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(seq), 0) + 1 FROM expenses WHERE event_id = $2))`
	_, err := tx.ExecContext(
		ctx,
		query,
		expense.ID,
		eventID,
		expense.Description,
		expense.Amount,
		expense.PayerID,
		method,
		expense.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}

	for i, split := range EncodeSplit(expense.Split) {
		query = `INSERT INTO expense_splits (expense_id, participant_id, position, amount, percent) VALUES ($1, $2, $3, $4, $5)`
		_, err = tx.ExecContext(ctx, query, expense.ID, split.ParticipantID, i+1, nullable(split.Amount), nullable(split.Percent))
		if err != nil {
			return fmt.Errorf("inserting expense split: %w", err)
		}
	}
	return nil
}

func (r *repository) DeleteExpense(ctx context.Context, eventID, expenseID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expenseID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND event_id = $2`, expenseID, eventID)
	if err != nil {
		return err
	}
	if err := expectRow(res, ErrExpenseNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
