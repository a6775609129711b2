// Package groupchat is the per-event broadcast channel: entitlement-gated
// posts, host announcements, soft deletion, reaction toggling, and the
// moderation gates checked before every send.
package groupchat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/encorelive/encore-backend/internal/entitlement"
	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/moderation"
	"github.com/encorelive/encore-backend/internal/phase"
	"github.com/encorelive/encore-backend/internal/storage"
	"github.com/google/uuid"
)

type MessageStore interface {
	Add(ctx context.Context, msg *models.GroupMessage) error
	Get(ctx context.Context, id string) (*models.GroupMessage, error)
	List(ctx context.Context, eventID string, limit int) ([]*models.GroupMessage, error)
	MarkDeleted(ctx context.Context, id, deletedBy string, at time.Time) error
	ToggleReaction(ctx context.Context, id, emoji, userID string) (bool, error)
}

type EventStore interface {
	StartTime(ctx context.Context, eventID string) (time.Time, error)
}

type Service struct {
	store        MessageStore
	events       EventStore
	ledger       *moderation.Ledger
	entitlements *entitlement.Resolver
	now          func() time.Time
}

func NewService(store MessageStore, events EventStore, ledger *moderation.Ledger, resolver *entitlement.Resolver) *Service {
	return &Service{
		store:        store,
		events:       events,
		ledger:       ledger,
		entitlements: resolver,
		now:          time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Post appends a message to the event channel after the full gate chain:
// removal, mute, entitlement, phase.
func (s *Service) Post(ctx context.Context, eventID, senderID, content string, msgType models.MessageType, anonymous bool) (*models.GroupMessage, error) {
	ent, err := s.gateSender(ctx, eventID, senderID)
	if err != nil {
		return nil, err
	}
	if msgType == "" {
		msgType = models.MessageText
	}
	if msgType == models.MessageAnnouncement || msgType == models.MessageSystem {
		return nil, fault.Denied("announcements are posted through the announce operation")
	}
	return s.append(ctx, eventID, senderID, content, msgType, anonymous, ent)
}

// Announce posts an announcement-typed message. Only host and venue grants
// may announce.
func (s *Service) Announce(ctx context.Context, eventID, senderID, content string) (*models.GroupMessage, error) {
	ent, err := s.gateSender(ctx, eventID, senderID)
	if err != nil {
		return nil, err
	}
	if !ent.Privileged() {
		return nil, fault.Denied("only the host can post announcements")
	}
	return s.append(ctx, eventID, senderID, content, models.MessageAnnouncement, false, ent)
}

func (s *Service) append(ctx context.Context, eventID, senderID, content string, msgType models.MessageType, anonymous bool, ent *models.Entitlement) (*models.GroupMessage, error) {
	if content == "" {
		return nil, fault.Denied("message cannot be empty")
	}
	msg := &models.GroupMessage{
		ID:          uuid.NewString(),
		EventID:     eventID,
		SenderID:    senderID,
		SenderBadge: string(ent.Type),
		Content:     content,
		Type:        msgType,
		IsAnonymous: anonymous,
		CreatedAt:   s.now(),
	}
	if err := s.store.Add(ctx, msg); err != nil {
		return nil, fault.Transient("could not post message", err)
	}
	return msg, nil
}

// History returns the channel's non-deleted messages, oldest first.
// Best-effort listing: a store failure degrades to an empty result.
func (s *Service) History(ctx context.Context, eventID string, limit int) []*models.GroupMessage {
	msgs, err := s.store.List(ctx, eventID, limit)
	if err != nil {
		log.Printf("[GroupChat] history for %s failed: %v", eventID, err)
		return []*models.GroupMessage{}
	}
	return msgs
}

// Delete soft-deletes a message. The sender may delete their own message;
// a host may delete anyone's. The record stays in storage for audit.
func (s *Service) Delete(ctx context.Context, messageID, actorID string) error {
	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFound("message not found")
		}
		return fault.Transient("could not load message", err)
	}
	if msg.IsDeleted {
		return fault.NotFound("message not found")
	}
	if msg.SenderID != actorID {
		ent, err := s.entitlements.Resolve(ctx, actorID, msg.EventID)
		if err != nil {
			return err
		}
		if !ent.Active() || !ent.Privileged() {
			return fault.Denied("you can only delete your own messages")
		}
	}
	if err := s.store.MarkDeleted(ctx, messageID, actorID, s.now()); err != nil {
		return fault.Transient("could not delete message", err)
	}
	return nil
}

// React toggles the actor's emoji reaction on a message: present removes,
// absent adds. Returns whether the reaction is now present.
func (s *Service) React(ctx context.Context, messageID, actorID, emoji string) (bool, error) {
	if emoji == "" {
		return false, fault.Denied("reaction emoji is required")
	}
	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fault.NotFound("message not found")
		}
		return false, fault.Transient("could not load message", err)
	}
	if msg.IsDeleted {
		return false, fault.NotFound("message not found")
	}
	if _, err := s.gateSender(ctx, msg.EventID, actorID); err != nil {
		return false, err
	}
	added, err := s.store.ToggleReaction(ctx, messageID, emoji, actorID)
	if err != nil {
		return false, fault.Transient("could not update reaction", err)
	}
	return added, nil
}

// MuteUser is the host-gated wrapper over the ledger mute. Moderation does
// not touch existing content, only future posting.
func (s *Service) MuteUser(ctx context.Context, eventID, actorID, targetID, reason string, duration time.Duration) (*models.Mute, error) {
	if err := s.requireHost(ctx, eventID, actorID); err != nil {
		return nil, err
	}
	return s.ledger.Mute(ctx, eventID, targetID, actorID, reason, duration)
}

// RemoveUser is the host-gated wrapper over the ledger removal.
func (s *Service) RemoveUser(ctx context.Context, eventID, actorID, targetID, reason string) (*models.ChatRemoval, error) {
	if err := s.requireHost(ctx, eventID, actorID); err != nil {
		return nil, err
	}
	return s.ledger.Remove(ctx, eventID, targetID, actorID, reason)
}

// CanSubscribe gates realtime access to the event channel: removed users
// and non-holders get no stream. Mutes only suppress posting, so a muted
// user may still subscribe and read.
func (s *Service) CanSubscribe(ctx context.Context, eventID, userID string) error {
	removed, err := s.ledger.IsRemoved(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if removed {
		return fault.Denied("you have been removed from this event's chat")
	}
	ent, err := s.entitlements.Resolve(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !ent.Active() {
		return fault.Denied("you are not a ticket holder for this event")
	}
	start, err := s.events.StartTime(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFound("event not found")
		}
		return fault.Transient("could not load event", err)
	}
	if phase.Resolve(start, s.now()) == phase.Expired {
		return fault.Denied("this event's chat has closed")
	}
	return nil
}

// gateSender runs the pre-send chain: removed, muted, entitled, phase
// interactive. It returns the entitlement so callers can badge the message.
func (s *Service) gateSender(ctx context.Context, eventID, senderID string) (*models.Entitlement, error) {
	removed, err := s.ledger.IsRemoved(ctx, eventID, senderID)
	if err != nil {
		return nil, err
	}
	if removed {
		return nil, fault.Denied("you have been removed from this event's chat")
	}
	muted, err := s.ledger.IsMuted(ctx, eventID, senderID)
	if err != nil {
		return nil, err
	}
	if muted {
		return nil, fault.Denied("you are muted in this event's chat")
	}
	ent, err := s.entitlements.Resolve(ctx, senderID, eventID)
	if err != nil {
		return nil, err
	}
	if !ent.Active() {
		return nil, fault.Denied("you are not a ticket holder for this event")
	}
	start, err := s.events.StartTime(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFound("event not found")
		}
		return nil, fault.Transient("could not load event", err)
	}
	if !phase.Resolve(start, s.now()).Interactive() {
		return nil, fault.Denied("this event's chat is no longer active")
	}
	return ent, nil
}

func (s *Service) requireHost(ctx context.Context, eventID, actorID string) error {
	ent, err := s.entitlements.Resolve(ctx, actorID, eventID)
	if err != nil {
		return err
	}
	if !ent.Active() || !ent.Privileged() {
		return fault.Denied("only the host can moderate this chat")
	}
	return nil
}
