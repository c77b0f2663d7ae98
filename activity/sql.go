package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type sqlRecorder struct {
	db *sql.DB
}

func NewSQLRecorder(db *sql.DB) *sqlRecorder {
	return &sqlRecorder{db: db}
}

func (r *sqlRecorder) Save(ctx context.Context, e Entry) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}

	statement := `INSERT INTO activity (id, event_id, entry_type, entry_data, entry_metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, statement, e.ID.String(), e.EventID, e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt.UnixMilli())
	return err
}

// ListByEvent returns the newest entries first. Data is decoded as generic
// JSON since the concrete payload type is not stored.
func (r *sqlRecorder) ListByEvent(ctx context.Context, eventID string, limit int) ([]Entry, error) {
	query := `SELECT id, event_id, entry_type, entry_data, entry_metadata, created_at
              FROM activity
              WHERE event_id = $1
              ORDER BY created_at DESC
              LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e                      Entry
			id                     string
			jsonData, jsonMetadata string
			createdAt              int64
		)
		if err := rows.Scan(&id, &e.EventID, &e.Type, &jsonData, &jsonMetadata, &createdAt); err != nil {
			return entries, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return entries, err
		}
		if err := json.Unmarshal([]byte(jsonData), &e.Data); err != nil {
			return entries, err
		}
		if err := json.Unmarshal([]byte(jsonMetadata), &e.Metadata); err != nil {
			return entries, err
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
