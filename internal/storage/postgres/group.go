package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/storage"
)

// GroupMessageStore persists the per-event broadcast channel. Deletion only
// ever sets is_deleted; rows are never removed (audit trail). Reactions
// live in their own table keyed by (message_id, emoji, user_id).
type GroupMessageStore struct {
	db *sql.DB
}

func NewGroupMessageStore(db *sql.DB) *GroupMessageStore {
	return &GroupMessageStore{db: db}
}

func (s *GroupMessageStore) Add(ctx context.Context, msg *models.GroupMessage) error {
	query := `
		INSERT INTO group_messages (id, event_id, sender_id, sender_badge, content, type, is_anonymous, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.EventID, msg.SenderID, msg.SenderBadge, msg.Content, msg.Type, msg.IsAnonymous, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert group message: %w", err)
	}
	return nil
}

func (s *GroupMessageStore) Get(ctx context.Context, id string) (*models.GroupMessage, error) {
	query := `
		SELECT id, event_id, sender_id, sender_badge, content, type, is_anonymous, created_at, is_deleted, deleted_by, deleted_at
		FROM group_messages WHERE id = $1
	`
	var m models.GroupMessage
	var deletedBy sql.NullString
	var deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.EventID, &m.SenderID, &m.SenderBadge, &m.Content, &m.Type,
		&m.IsAnonymous, &m.CreatedAt, &m.IsDeleted, &deletedBy, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query group message: %w", err)
	}
	m.DeletedBy = deletedBy.String
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}
	if err := s.loadReactions(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the newest non-deleted messages for an event, oldest first.
func (s *GroupMessageStore) List(ctx context.Context, eventID string, limit int) ([]*models.GroupMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, event_id, sender_id, sender_badge, content, type, is_anonymous, created_at
		FROM (
			SELECT * FROM group_messages
			WHERE event_id = $1 AND NOT is_deleted
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("query group messages: %w", err)
	}
	defer rows.Close()

	var out []*models.GroupMessage
	for rows.Next() {
		var m models.GroupMessage
		if err := rows.Scan(&m.ID, &m.EventID, &m.SenderID, &m.SenderBadge, &m.Content, &m.Type, &m.IsAnonymous, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group message: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if err := s.loadReactions(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *GroupMessageStore) MarkDeleted(ctx context.Context, id, deletedBy string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_messages SET is_deleted = true, deleted_by = $2, deleted_at = $3 WHERE id = $1`,
		id, deletedBy, at)
	if err != nil {
		return fmt.Errorf("mark group message deleted: %w", err)
	}
	return requireRow(res)
}

// ToggleReaction inserts the (message, emoji, user) row, or deletes it if
// the insert conflicts with an existing one.
func (s *GroupMessageStore) ToggleReaction(ctx context.Context, id, emoji, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO group_message_reactions (message_id, emoji, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (message_id, emoji, user_id) DO NOTHING`,
		id, emoji, userID)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted > 0 {
		return true, nil
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM group_message_reactions WHERE message_id = $1 AND emoji = $2 AND user_id = $3`,
		id, emoji, userID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	return false, nil
}

func (s *GroupMessageStore) loadReactions(ctx context.Context, m *models.GroupMessage) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT emoji, user_id FROM group_message_reactions WHERE message_id = $1`, m.ID)
	if err != nil {
		return fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var emoji, userID string
		if err := rows.Scan(&emoji, &userID); err != nil {
			return fmt.Errorf("scan reaction: %w", err)
		}
		if m.Reactions == nil {
			m.Reactions = make(map[string][]string)
		}
		m.Reactions[emoji] = append(m.Reactions[emoji], userID)
	}
	return rows.Err()
}
