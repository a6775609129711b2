package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/encorelive/encore-backend/internal/models"
)

// GrantStore reads the externally-owned grant-source collections: orders,
// guestlist entries, and event ownership. This layer never writes them.
type GrantStore struct {
	db *sql.DB
}

func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

func (s *GrantStore) OrdersForUser(ctx context.Context, userID, eventID string) ([]models.Order, error) {
	query := `
		SELECT id, user_id, event_id, status, transferred_from, ticket_tier, created_at
		FROM orders
		WHERE user_id = $1 AND event_id = $2
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var transferredFrom sql.NullString
		var tier sql.NullString
		if err := rows.Scan(&o.ID, &o.UserID, &o.EventID, &o.Status, &transferredFrom, &tier, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if transferredFrom.Valid {
			v := transferredFrom.String
			o.TransferredFrom = &v
		}
		o.TicketTier = tier.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *GrantStore) GuestlistEntry(ctx context.Context, userID, eventID string) (*models.GuestlistEntry, error) {
	query := `
		SELECT id, user_id, event_id, status, approved_at
		FROM guestlist_entries
		WHERE user_id = $1 AND event_id = $2
	`
	var e models.GuestlistEntry
	var approvedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID, eventID).Scan(&e.ID, &e.UserID, &e.EventID, &e.Status, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query guestlist entry: %w", err)
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		e.ApprovedAt = &t
	}
	return &e, nil
}

func (s *GrantStore) IsOrganizer(ctx context.Context, userID, eventID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM event_owners
			WHERE event_id = $1 AND user_id = $2
		)
	`
	var owner bool
	if err := s.db.QueryRowContext(ctx, query, eventID, userID).Scan(&owner); err != nil {
		return false, fmt.Errorf("query event owners: %w", err)
	}
	return owner, nil
}
