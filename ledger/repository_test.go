package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestRepositoryCreateEvent(t *testing.T) {
	db, mock := newMock(t)
	created := time.UnixMilli(1700000000000).UTC()

	e := abcEvent(
		Expense{ID: "x2", Description: "Taxi", Amount: 12, PayerID: "B", Split: CustomSplit{Portions: []Portion{{"A", 12}}}, CreatedAt: created},
		Expense{ID: "x1", Description: "Dinner", Amount: 30, PayerID: "A", Split: EqualSplit{ParticipantIDs: []string{"A", "B"}}, CreatedAt: created},
	)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WithArgs("evt", "Test", "USD", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WithArgs("A", "evt", "Ann", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WithArgs("B", "evt", "Ben", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WithArgs("C", "evt", "Cy", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	// oldest expense first
	mock.ExpectExec("INSERT INTO expenses").WithArgs("x1", "evt", "Dinner", 30.0, "A", "equal", created.UnixMilli()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO expense_splits").WithArgs("x1", "A", 1, nil, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO expense_splits").WithArgs("x1", "B", 2, nil, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO expenses").WithArgs("x2", "evt", "Taxi", 12.0, "B", "custom", created.UnixMilli()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO expense_splits").WithArgs("x2", "A", 1, 12.0, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(db).CreateEvent(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateEventRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := NewRepository(db).CreateEvent(context.Background(), abcEvent())
	assert.ErrorContains(t, err, "inserting participant")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetEvent(t *testing.T) {
	db, mock := newMock(t)
	created := time.UnixMilli(1700000000000).UTC()

	mock.ExpectQuery("SELECT id, title, currency FROM events").WithArgs("evt").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "currency"}).AddRow("evt", "Test", "USD"))
	mock.ExpectQuery("SELECT id, name FROM participants").WithArgs("evt").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("A", "Ann").AddRow("B", "Ben"))
	mock.ExpectQuery("SELECT s.expense_id").WithArgs("evt").
		WillReturnRows(sqlmock.NewRows([]string{"expense_id", "participant_id", "amount", "percent"}).
			AddRow("x2", "A", nil, 70.0).
			AddRow("x2", "B", nil, 30.0).
			AddRow("x1", "A", nil, nil).
			AddRow("x1", "B", nil, nil))
	mock.ExpectQuery("SELECT id, description, amount, payer_id").WithArgs("evt").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "amount", "payer_id", "split_method", "created_at"}).
			AddRow("x2", "Taxi", 10.0, "B", "percent", created.UnixMilli()).
			AddRow("x1", "Dinner", 30.0, "A", "equal", created.UnixMilli()))

	e, err := NewRepository(db).GetEvent(context.Background(), "evt")
	require.NoError(t, err)
	assert.Equal(t, Event{
		ID:           "evt",
		Title:        "Test",
		Currency:     "USD",
		Participants: []Participant{{ID: "A", Name: "Ann"}, {ID: "B", Name: "Ben"}},
		Expenses: []Expense{
			{ID: "x2", Description: "Taxi", Amount: 10, PayerID: "B", Split: PercentSplit{Portions: []Portion{{"A", 70}, {"B", 30}}}, CreatedAt: created},
			{ID: "x1", Description: "Dinner", Amount: 30, PayerID: "A", Split: EqualSplit{ParticipantIDs: []string{"A", "B"}}, CreatedAt: created},
		},
	}, e)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetEventNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("SELECT id, title, currency FROM events").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := NewRepository(db).GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRepositoryListEvents(t *testing.T) {
	db, mock := newMock(t)
	created := time.UnixMilli(1700000000000).UTC()

	mock.ExpectQuery("SELECT id, title, currency, created_at FROM events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "currency", "created_at"}).AddRow("evt", "Test", "USD", created.UnixMilli()))

	events, err := NewRepository(db).ListEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EventInfo{{ID: "evt", Title: "Test", Currency: "USD", CreatedAt: created}}, events)
}

func TestRepositoryNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("update meta", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE events SET title").WithArgs("T", "EUR", "missing").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, NewRepository(db).UpdateMeta(ctx, "missing", "T", "EUR"), ErrEventNotFound)
	})

	t.Run("delete expense", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM expense_splits").WithArgs("x9").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM expenses WHERE id").WithArgs("x9", "evt").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		assert.ErrorIs(t, NewRepository(db).DeleteExpense(ctx, "evt", "x9"), ErrExpenseNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("remove participant", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM expense_splits").WithArgs("Z", "evt").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM participants").WithArgs("Z", "evt").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		assert.ErrorIs(t, NewRepository(db).RemoveParticipant(ctx, "evt", "Z"), ErrParticipantNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryRemoveParticipant(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM expense_splits").WithArgs("C", "evt").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM participants").WithArgs("C", "evt").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(db).RemoveParticipant(context.Background(), "evt", "C"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteEvent(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM expense_splits").WithArgs("evt").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM expenses").WithArgs("evt").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM participants").WithArgs("evt").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM events").WithArgs("evt").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(db).DeleteEvent(context.Background(), "evt"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAddParticipant(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("INSERT INTO participants").WithArgs("D", "evt", "Dee").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewRepository(db).AddParticipant(context.Background(), "evt", Participant{ID: "D", Name: "Dee"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
