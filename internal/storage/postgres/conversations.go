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

// ConversationStore persists private conversations and their messages. The
// conversations table carries a unique index over (event_id, participant_a,
// participant_b); concurrent initiations converge on whichever insert won
// via ON CONFLICT, so no distributed lock is needed.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationColumns = `id, event_id, participant_a, participant_b, status, initiated_by,
	created_at, accepted_at, expires_at, is_saved,
	last_message_sender, last_message_content, last_message_at`

func (s *ConversationStore) Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, event_id, participant_a, participant_b, status, initiated_by, created_at, expires_at, is_saved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id, participant_a, participant_b) DO UPDATE SET event_id = EXCLUDED.event_id
		RETURNING ` + conversationColumns
	row := s.db.QueryRowContext(ctx, query,
		conv.ID, conv.EventID, conv.ParticipantA, conv.ParticipantB,
		conv.Status, conv.InitiatedBy, conv.CreatedAt, conv.ExpiresAt, conv.IsSaved,
	)
	return scanConversation(row)
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *ConversationStore) FindByPair(ctx context.Context, eventID, a, b string) (*models.Conversation, error) {
	a, b = models.NormalizePair(a, b)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE event_id = $1 AND participant_a = $2 AND participant_b = $3`,
		eventID, a, b)
	return scanConversation(row)
}

func (s *ConversationStore) UpdateStatus(ctx context.Context, id string, status models.ConversationStatus, acceptedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = $2, accepted_at = COALESCE($3, accepted_at) WHERE id = $1`,
		id, status, acceptedAt)
	if err != nil {
		return fmt.Errorf("update conversation status: %w", err)
	}
	return requireRow(res)
}

func (s *ConversationStore) SetSaved(ctx context.Context, id string, saved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET is_saved = $2 WHERE id = $1`, id, saved)
	if err != nil {
		return fmt.Errorf("update conversation saved flag: %w", err)
	}
	return requireRow(res)
}

func (s *ConversationStore) SetLastMessage(ctx context.Context, id string, summary models.MessageSummary) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_sender = $2, last_message_content = $3, last_message_at = $4 WHERE id = $1`,
		id, summary.SenderID, summary.Content, summary.SentAt)
	if err != nil {
		return fmt.Errorf("update conversation last message: %w", err)
	}
	return requireRow(res)
}

func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY created_at DESC`
	return s.list(ctx, query, userID)
}

func (s *ConversationStore) ListSaved(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE (participant_a = $1 OR participant_b = $1) AND is_saved
		ORDER BY created_at DESC`
	return s.list(ctx, query, userID)
}

func (s *ConversationStore) list(ctx context.Context, query string, args ...any) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (s *ConversationStore) BlockPair(ctx context.Context, eventID, a, b string) error {
	a, b = models.NormalizePair(a, b)
	query := `
		UPDATE conversations SET status = $1
		WHERE participant_a = $2 AND participant_b = $3
		  AND status IN ($4, $5)
		  AND ($6 = '' OR event_id = $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		models.ConversationBlocked, a, b,
		models.ConversationPending, models.ConversationAccepted, eventID)
	if err != nil {
		return fmt.Errorf("block conversation pair: %w", err)
	}
	return nil
}

func (s *ConversationStore) AddMessage(ctx context.Context, msg *models.DirectMessage) error {
	query := `
		INSERT INTO direct_messages (id, conversation_id, sender_id, recipient_id, content, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.RecipientID, msg.Content, msg.Type, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert direct message: %w", err)
	}
	return nil
}

func (s *ConversationStore) Messages(ctx context.Context, conversationID string, limit int) ([]models.DirectMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, recipient_id, content, type, created_at, read_at
		FROM (
			SELECT * FROM direct_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query direct messages: %w", err)
	}
	defer rows.Close()

	var out []models.DirectMessage
	for rows.Next() {
		var m models.DirectMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Content, &m.Type, &m.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("scan direct message: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *ConversationStore) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE direct_messages SET read_at = $3 WHERE conversation_id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		conversationID, readerID, at)
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conv models.Conversation
	var acceptedAt sql.NullTime
	var lastSender, lastContent sql.NullString
	var lastAt sql.NullTime
	err := row.Scan(
		&conv.ID, &conv.EventID, &conv.ParticipantA, &conv.ParticipantB,
		&conv.Status, &conv.InitiatedBy, &conv.CreatedAt, &acceptedAt,
		&conv.ExpiresAt, &conv.IsSaved, &lastSender, &lastContent, &lastAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if acceptedAt.Valid {
		t := acceptedAt.Time
		conv.AcceptedAt = &t
	}
	if lastSender.Valid {
		conv.LastMessage = &models.MessageSummary{
			SenderID: lastSender.String,
			Content:  lastContent.String,
			SentAt:   lastAt.Time,
		}
	}
	return &conv, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
