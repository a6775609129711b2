// Package chat is the private-conversation state machine. A conversation is
// created pending by an initiator, accepted or declined by the other
// participant, and can be flipped to blocked from any state by the
// moderation ledger. Every capability request runs the same gauntlet:
// moderation ledger, then entitlement, then phase.
package chat

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

// ConversationStore is the backing collection contract.
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	Get(ctx context.Context, id string) (*models.Conversation, error)
	FindByPair(ctx context.Context, eventID, a, b string) (*models.Conversation, error)
	UpdateStatus(ctx context.Context, id string, status models.ConversationStatus, acceptedAt *time.Time) error
	SetSaved(ctx context.Context, id string, saved bool) error
	SetLastMessage(ctx context.Context, id string, summary models.MessageSummary) error
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	ListSaved(ctx context.Context, userID string) ([]*models.Conversation, error)
	AddMessage(ctx context.Context, msg *models.DirectMessage) error
	Messages(ctx context.Context, conversationID string, limit int) ([]models.DirectMessage, error)
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) error
}

// EventStore supplies the scheduled start instant of an event.
type EventStore interface {
	StartTime(ctx context.Context, eventID string) (time.Time, error)
}

type Service struct {
	store        ConversationStore
	events       EventStore
	ledger       *moderation.Ledger
	entitlements *entitlement.Resolver
	now          func() time.Time
}

func NewService(store ConversationStore, events EventStore, ledger *moderation.Ledger, resolver *entitlement.Resolver) *Service {
	return &Service{
		store:        store,
		events:       events,
		ledger:       ledger,
		entitlements: resolver,
		now:          time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CanInitiateDM runs the gate chain for starting a conversation without
// creating anything: block check, both entitlements, phase.
func (s *Service) CanInitiateDM(ctx context.Context, senderID, recipientID, eventID string) error {
	_, err := s.initiateGate(ctx, senderID, recipientID, eventID)
	return err
}

// initiateGate runs the gate chain and hands back the event start so
// Initiate can derive expiry without a second event fetch.
func (s *Service) initiateGate(ctx context.Context, senderID, recipientID, eventID string) (time.Time, error) {
	if senderID == recipientID {
		return time.Time{}, fault.Denied("you cannot message yourself")
	}
	blocked, err := s.ledger.IsBlocked(ctx, senderID, recipientID)
	if err != nil {
		return time.Time{}, err
	}
	if blocked {
		return time.Time{}, fault.Denied("messaging is not available with this user")
	}
	if err := s.requireEntitlement(ctx, senderID, eventID, "you are not a ticket holder for this event"); err != nil {
		return time.Time{}, err
	}
	if err := s.requireEntitlement(ctx, recipientID, eventID, "this user is not attending the event"); err != nil {
		return time.Time{}, err
	}
	start, err := s.events.StartTime(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return time.Time{}, fault.NotFound("event not found")
		}
		return time.Time{}, fault.Transient("could not load event", err)
	}
	if !phase.Resolve(start, s.now()).Interactive() {
		return time.Time{}, fault.Denied("this event's chat is no longer active")
	}
	return start, nil
}

// Initiate creates a pending conversation from sender to recipient, or
// returns the existing one for the pair (idempotent). A blocked existing
// conversation is a denial, not a result.
func (s *Service) Initiate(ctx context.Context, senderID, recipientID, eventID string) (*models.Conversation, error) {
	start, err := s.initiateGate(ctx, senderID, recipientID, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByPair(ctx, eventID, senderID, recipientID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fault.Transient("could not look up conversation", err)
	}
	if existing != nil {
		if existing.Status == models.ConversationBlocked {
			return nil, fault.Denied("messaging is not available with this user")
		}
		return existing, nil
	}

	a, b := models.NormalizePair(senderID, recipientID)
	conv := &models.Conversation{
		ID:           uuid.NewString(),
		EventID:      eventID,
		ParticipantA: a,
		ParticipantB: b,
		Status:       models.ConversationPending,
		InitiatedBy:  senderID,
		CreatedAt:    s.now(),
		// Expiry is derived from the event's scheduled end, not from the
		// wall clock at creation time.
		ExpiresAt: phase.EventEnd(start).Add(phase.ConversationRetention),
	}
	created, err := s.store.Create(ctx, conv)
	if err != nil {
		return nil, fault.Transient("could not create conversation", err)
	}
	if created.ID != conv.ID {
		// Another client won the race; their record is canonical.
		log.Printf("[Chat] initiate converged on existing conversation %s", created.ID)
	}
	return created, nil
}

// Accept moves pending -> accepted. Only the non-initiating participant may
// accept.
func (s *Service) Accept(ctx context.Context, conversationID, actorID string) (*models.Conversation, error) {
	conv, err := s.participant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationPending {
		return nil, fault.Deniedf("this request was already %s", conv.Status)
	}
	if conv.InitiatedBy == actorID {
		return nil, fault.Denied("you cannot accept your own message request")
	}
	at := s.now()
	if err := s.store.UpdateStatus(ctx, conversationID, models.ConversationAccepted, &at); err != nil {
		return nil, fault.Transient("could not accept conversation", err)
	}
	conv.Status = models.ConversationAccepted
	conv.AcceptedAt = &at
	return conv, nil
}

// Decline moves pending -> declined. Either participant may decline: the
// recipient to reject the request, the initiator to withdraw it.
func (s *Service) Decline(ctx context.Context, conversationID, actorID string) (*models.Conversation, error) {
	conv, err := s.participant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationPending {
		return nil, fault.Deniedf("this request was already %s", conv.Status)
	}
	if err := s.store.UpdateStatus(ctx, conversationID, models.ConversationDeclined, nil); err != nil {
		return nil, fault.Transient("could not decline conversation", err)
	}
	conv.Status = models.ConversationDeclined
	return conv, nil
}

// SendMessage appends a message to an accepted, unexpired conversation and
// refreshes the denormalized last-message summary. The block check runs
// again here: a block applied after acceptance is enforced on the next
// interaction, flipping the conversation to blocked.
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string, msgType models.MessageType) (*models.DirectMessage, error) {
	conv, err := s.participant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	recipient := conv.Other(senderID)

	blocked, err := s.ledger.IsBlocked(ctx, senderID, recipient)
	if err != nil {
		return nil, err
	}
	if blocked {
		if conv.Status == models.ConversationPending || conv.Status == models.ConversationAccepted {
			if err := s.store.UpdateStatus(ctx, conversationID, models.ConversationBlocked, nil); err != nil {
				log.Printf("[Chat] could not flip conversation %s to blocked: %v", conversationID, err)
			}
		}
		return nil, fault.Denied("messaging is not available with this user")
	}
	if conv.Status != models.ConversationAccepted {
		return nil, fault.Deniedf("this conversation is %s", conv.Status)
	}
	if !conv.IsSaved && s.now().After(conv.ExpiresAt) {
		return nil, fault.Denied("this conversation has expired")
	}
	if content == "" {
		return nil, fault.Denied("message cannot be empty")
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	msg := &models.DirectMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipient,
		Content:        content,
		Type:           msgType,
		CreatedAt:      s.now(),
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, fault.Transient("could not send message", err)
	}
	summary := models.MessageSummary{SenderID: senderID, Content: content, SentAt: msg.CreatedAt}
	if err := s.store.SetLastMessage(ctx, conversationID, summary); err != nil {
		// Denormalized preview only; the message itself is already stored.
		log.Printf("[Chat] could not update last message for %s: %v", conversationID, err)
	}
	return msg, nil
}

// SaveContact marks the conversation as saved, exempting it from expiry.
// This is the only path by which a connection outlives the event's social
// window. Either participant may save.
func (s *Service) SaveContact(ctx context.Context, conversationID, actorID string) (*models.Conversation, error) {
	conv, err := s.participant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationAccepted {
		return nil, fault.Denied("only an accepted conversation can be saved")
	}
	if err := s.store.SetSaved(ctx, conversationID, true); err != nil {
		return nil, fault.Transient("could not save contact", err)
	}
	conv.IsSaved = true
	return conv, nil
}

// Messages returns the conversation history for a participant.
func (s *Service) Messages(ctx context.Context, conversationID, actorID string, limit int) ([]models.DirectMessage, error) {
	if _, err := s.participant(ctx, conversationID, actorID); err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages(ctx, conversationID, limit)
	if err != nil {
		return nil, fault.Transient("could not load messages", err)
	}
	return msgs, nil
}

// MarkRead stamps ReadAt on the actor's unread messages.
func (s *Service) MarkRead(ctx context.Context, conversationID, actorID string) error {
	if _, err := s.participant(ctx, conversationID, actorID); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, conversationID, actorID, s.now()); err != nil {
		return fault.Transient("could not mark messages read", err)
	}
	return nil
}

// List returns the user's conversations. Best-effort listing: a store
// failure degrades to an empty result.
func (s *Service) List(ctx context.Context, userID string) []*models.Conversation {
	convs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		log.Printf("[Chat] list conversations for %s failed: %v", userID, err)
		return []*models.Conversation{}
	}
	return convs
}

// SavedContacts returns the user's saved conversations. Best-effort.
func (s *Service) SavedContacts(ctx context.Context, userID string) []*models.Conversation {
	convs, err := s.store.ListSaved(ctx, userID)
	if err != nil {
		log.Printf("[Chat] list saved contacts for %s failed: %v", userID, err)
		return []*models.Conversation{}
	}
	return convs
}

func (s *Service) participant(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := s.store.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFound("conversation not found")
		}
		return nil, fault.Transient("could not load conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, fault.Denied("you are not part of this conversation")
	}
	return conv, nil
}

func (s *Service) requireEntitlement(ctx context.Context, userID, eventID, reason string) error {
	ent, err := s.entitlements.Resolve(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !ent.Active() {
		return fault.Denied(reason)
	}
	return nil
}
