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

// ModerationStore persists blocks, mutes, removals and reports.
type ModerationStore struct {
	db *sql.DB
}

func NewModerationStore(db *sql.DB) *ModerationStore {
	return &ModerationStore{db: db}
}

func (s *ModerationStore) CreateBlock(ctx context.Context, b models.Block) error {
	query := `
		INSERT INTO blocks (blocker_id, blocked_id, event_id, is_global, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (blocker_id, blocked_id, event_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, b.BlockerID, b.BlockedID, b.EventID, b.IsGlobal, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (s *ModerationStore) DeleteBlock(ctx context.Context, blockerID, blockedID, eventID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2 AND ($3 = '' OR event_id = $3)`,
		blockerID, blockedID, eventID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *ModerationStore) BlocksBetween(ctx context.Context, a, b string) ([]models.Block, error) {
	query := `
		SELECT blocker_id, blocked_id, event_id, is_global, created_at
		FROM blocks
		WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
	`
	rows, err := s.db.QueryContext(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var out []models.Block
	for rows.Next() {
		var blk models.Block
		if err := rows.Scan(&blk.BlockerID, &blk.BlockedID, &blk.EventID, &blk.IsGlobal, &blk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		out = append(out, blk)
	}
	return out, rows.Err()
}

func (s *ModerationStore) CreateMute(ctx context.Context, m models.Mute) error {
	query := `
		INSERT INTO mutes (id, event_id, user_id, muted_by, reason, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query, m.ID, m.EventID, m.UserID, m.MutedBy, m.Reason, m.CreatedAt, m.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert mute: %w", err)
	}
	return nil
}

func (s *ModerationStore) ActiveMute(ctx context.Context, eventID, userID string, now time.Time) (*models.Mute, error) {
	query := `
		SELECT id, event_id, user_id, muted_by, reason, created_at, expires_at
		FROM mutes
		WHERE event_id = $1 AND user_id = $2 AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	var m models.Mute
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, eventID, userID, now).Scan(
		&m.ID, &m.EventID, &m.UserID, &m.MutedBy, &m.Reason, &m.CreatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mute: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		m.ExpiresAt = &t
	}
	return &m, nil
}

func (s *ModerationStore) CreateRemoval(ctx context.Context, r models.ChatRemoval) error {
	query := `
		INSERT INTO chat_removals (id, event_id, user_id, removed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.EventID, r.UserID, r.RemovedBy, r.Reason, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert removal: %w", err)
	}
	return nil
}

func (s *ModerationStore) Removal(ctx context.Context, eventID, userID string) (*models.ChatRemoval, error) {
	query := `
		SELECT id, event_id, user_id, removed_by, reason, created_at
		FROM chat_removals
		WHERE event_id = $1 AND user_id = $2
		LIMIT 1
	`
	var r models.ChatRemoval
	err := s.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&r.ID, &r.EventID, &r.UserID, &r.RemovedBy, &r.Reason, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query removal: %w", err)
	}
	return &r, nil
}

func (s *ModerationStore) CreateReport(ctx context.Context, r *models.Report) error {
	query := `
		INSERT INTO reports (id, reporter_id, reported_id, category, description, event_id, message_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.ReporterID, r.ReportedID, r.Category, r.Description, r.EventID, r.MessageID, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *ModerationStore) ReportsForEvent(ctx context.Context, eventID string) ([]models.Report, error) {
	query := `
		SELECT id, reporter_id, reported_id, category, description, event_id, message_id, status, created_at, resolved_at
		FROM reports
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		var resolvedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.ReportedID, &r.Category, &r.Description,
			&r.EventID, &r.MessageID, &r.Status, &r.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			r.ResolvedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ModerationStore) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, resolvedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = $2, resolved_at = $3 WHERE id = $1`,
		id, status, resolvedAt)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
