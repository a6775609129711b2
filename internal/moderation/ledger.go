// Package moderation is the record store of blocks, mutes, removals and
// reports. Every other component consults it before allowing an
// interaction.
package moderation

import (
	"context"
	"log"
	"time"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/google/uuid"
)

// Store is the backing collection contract, implemented by the memory and
// postgres adapters.
type Store interface {
	CreateBlock(ctx context.Context, b models.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID, eventID string) error
	BlocksBetween(ctx context.Context, a, b string) ([]models.Block, error)
	CreateMute(ctx context.Context, m models.Mute) error
	ActiveMute(ctx context.Context, eventID, userID string, now time.Time) (*models.Mute, error)
	CreateRemoval(ctx context.Context, r models.ChatRemoval) error
	Removal(ctx context.Context, eventID, userID string) (*models.ChatRemoval, error)
	CreateReport(ctx context.Context, r *models.Report) error
	ReportsForEvent(ctx context.Context, eventID string) ([]models.Report, error)
	UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, resolvedAt time.Time) error
}

// ConversationBlocker is the hook back into the conversation store: a block
// transitions any live conversation between the pair to blocked.
type ConversationBlocker interface {
	BlockPair(ctx context.Context, eventID, a, b string) error
}

type Ledger struct {
	store Store
	convs ConversationBlocker
	now   func() time.Time
}

func NewLedger(store Store, convs ConversationBlocker) *Ledger {
	return &Ledger{store: store, convs: convs, now: time.Now}
}

// WithClock overrides the ledger clock, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// IsBlocked reports whether any directed block exists between a and b, in
// either direction. A store failure reads as blocked (fail closed).
func (l *Ledger) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	blocks, err := l.store.BlocksBetween(ctx, a, b)
	if err != nil {
		return true, fault.Transient("could not check block status", err)
	}
	return len(blocks) > 0, nil
}

// IsMuted reports whether an active, non-expired mute exists for the user
// in the event.
func (l *Ledger) IsMuted(ctx context.Context, eventID, userID string) (bool, error) {
	m, err := l.store.ActiveMute(ctx, eventID, userID, l.now())
	if err != nil {
		return true, fault.Transient("could not check mute status", err)
	}
	return m != nil, nil
}

// IsRemoved reports whether the user was removed from the event's chat.
func (l *Ledger) IsRemoved(ctx context.Context, eventID, userID string) (bool, error) {
	r, err := l.store.Removal(ctx, eventID, userID)
	if err != nil {
		return true, fault.Transient("could not check removal status", err)
	}
	return r != nil, nil
}

// Block records a directed block edge and, as a side effect, flips any
// pending or accepted conversation between the pair to blocked.
func (l *Ledger) Block(ctx context.Context, blockerID, blockedID, eventID string, isGlobal bool) error {
	if blockerID == blockedID {
		return fault.Denied("you cannot block yourself")
	}
	b := models.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
		EventID:   eventID,
		IsGlobal:  isGlobal,
		CreatedAt: l.now(),
	}
	if isGlobal {
		b.EventID = ""
	}
	if err := l.store.CreateBlock(ctx, b); err != nil {
		return fault.Transient("could not save block", err)
	}
	if l.convs != nil {
		if err := l.convs.BlockPair(ctx, b.EventID, blockerID, blockedID); err != nil {
			// The block itself is recorded; the conversation flip will be
			// re-applied on the pair's next interaction attempt.
			log.Printf("[Moderation] block conversation flip failed for %s/%s: %v", blockerID, blockedID, err)
		}
	}
	return nil
}

// Unblock removes the directed edge. It does not restore any conversation
// the block closed; the pair has to initiate again.
func (l *Ledger) Unblock(ctx context.Context, blockerID, blockedID, eventID string) error {
	if err := l.store.DeleteBlock(ctx, blockerID, blockedID, eventID); err != nil {
		return fault.Transient("could not remove block", err)
	}
	return nil
}

// Mute suppresses a user's future posting in the event's group channel.
// A zero duration is permanent.
func (l *Ledger) Mute(ctx context.Context, eventID, userID, mutedBy, reason string, duration time.Duration) (*models.Mute, error) {
	m := models.Mute{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		MutedBy:   mutedBy,
		Reason:    reason,
		CreatedAt: l.now(),
	}
	if duration > 0 {
		until := m.CreatedAt.Add(duration)
		m.ExpiresAt = &until
	}
	if err := l.store.CreateMute(ctx, m); err != nil {
		return nil, fault.Transient("could not save mute", err)
	}
	return &m, nil
}

// Remove permanently bars a user from the event's group channel.
func (l *Ledger) Remove(ctx context.Context, eventID, userID, removedBy, reason string) (*models.ChatRemoval, error) {
	r := models.ChatRemoval{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		RemovedBy: removedBy,
		Reason:    reason,
		CreatedAt: l.now(),
	}
	if err := l.store.CreateRemoval(ctx, r); err != nil {
		return nil, fault.Transient("could not save removal", err)
	}
	return &r, nil
}

// Report files a report against a user. Reports start open; resolution is a
// host/dashboard concern.
func (l *Ledger) Report(ctx context.Context, reporterID, reportedID string, category models.ReportCategory, description, eventID, messageID string) (*models.Report, error) {
	if reporterID == reportedID {
		return nil, fault.Denied("you cannot report yourself")
	}
	r := &models.Report{
		ID:          uuid.NewString(),
		ReporterID:  reporterID,
		ReportedID:  reportedID,
		Category:    category,
		Description: description,
		EventID:     eventID,
		MessageID:   messageID,
		Status:      models.ReportOpen,
		CreatedAt:   l.now(),
	}
	if err := l.store.CreateReport(ctx, r); err != nil {
		return nil, fault.Transient("could not save report", err)
	}
	return r, nil
}

// Reports lists an event's reports. Best-effort: a store failure degrades
// to an empty list rather than a fault.
func (l *Ledger) Reports(ctx context.Context, eventID string) []models.Report {
	reports, err := l.store.ReportsForEvent(ctx, eventID)
	if err != nil {
		log.Printf("[Moderation] list reports for %s failed: %v", eventID, err)
		return []models.Report{}
	}
	return reports
}

// ResolveReport updates a report's resolution status.
func (l *Ledger) ResolveReport(ctx context.Context, reportID string, status models.ReportStatus) error {
	if err := l.store.UpdateReportStatus(ctx, reportID, status, l.now()); err != nil {
		if errIsNotFound(err) {
			return fault.NotFound("report not found")
		}
		return fault.Transient("could not update report", err)
	}
	return nil
}
