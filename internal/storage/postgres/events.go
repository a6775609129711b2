package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/encorelive/encore-backend/internal/storage"
)

// EventStore reads the externally-owned event records.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) StartTime(ctx context.Context, eventID string) (time.Time, error) {
	var start time.Time
	err := s.db.QueryRowContext(ctx, `SELECT start_time FROM events WHERE id = $1`, eventID).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query event: %w", err)
	}
	return start, nil
}
