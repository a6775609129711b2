package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
)

// ConversationStore manages private conversations and their messages in
// memory. The pair index enforces the one-conversation-per-pair-per-event
// invariant: creation under the store mutex either inserts or returns the
// record that won.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation      // conversationID -> record
	pairIndex     map[string]string                    // eventID|A|B -> conversationID
	userIndex     map[string][]string                  // userID -> conversationIDs
	messages      map[string][]models.DirectMessage    // conversationID -> messages
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*models.Conversation),
		pairIndex:     make(map[string]string),
		userIndex:     make(map[string][]string),
		messages:      make(map[string][]models.DirectMessage),
	}
}

func pairKey(eventID, a, b string) string {
	a, b = models.NormalizePair(a, b)
	return eventID + "|" + a + "|" + b
}

// Create inserts conv unless the pair already has a conversation for the
// event, in which case the existing record is returned as canonical.
func (s *ConversationStore) Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(conv.EventID, conv.ParticipantA, conv.ParticipantB)
	if id, ok := s.pairIndex[key]; ok {
		existing := *s.conversations[id]
		return &existing, nil
	}
	stored := *conv
	s.conversations[stored.ID] = &stored
	s.pairIndex[key] = stored.ID
	s.userIndex[stored.ParticipantA] = append(s.userIndex[stored.ParticipantA], stored.ID)
	s.userIndex[stored.ParticipantB] = append(s.userIndex[stored.ParticipantB], stored.ID)
	out := stored
	return &out, nil
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *conv
	return &out, nil
}

func (s *ConversationStore) FindByPair(ctx context.Context, eventID, a, b string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pairIndex[pairKey(eventID, a, b)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.conversations[id]
	return &out, nil
}

func (s *ConversationStore) UpdateStatus(ctx context.Context, id string, status models.ConversationStatus, acceptedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Status = status
	if acceptedAt != nil {
		conv.AcceptedAt = acceptedAt
	}
	return nil
}

func (s *ConversationStore) SetSaved(ctx context.Context, id string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.IsSaved = saved
	return nil
}

func (s *ConversationStore) SetLastMessage(ctx context.Context, id string, summary models.MessageSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.LastMessage = &summary
	return nil
}

func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Conversation
	for _, id := range s.userIndex[userID] {
		conv := *s.conversations[id]
		out = append(out, &conv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListSaved returns the user's saved contacts, newest first.
func (s *ConversationStore) ListSaved(ctx context.Context, userID string) ([]*models.Conversation, error) {
	all, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*models.Conversation
	for _, conv := range all {
		if conv.IsSaved {
			out = append(out, conv)
		}
	}
	return out, nil
}

// BlockPair flips every non-declined conversation between a and b to
// blocked. An empty eventID means all events (global block).
func (s *ConversationStore) BlockPair(ctx context.Context, eventID, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, b = models.NormalizePair(a, b)
	for _, conv := range s.conversations {
		if conv.ParticipantA != a || conv.ParticipantB != b {
			continue
		}
		if eventID != "" && conv.EventID != eventID {
			continue
		}
		if conv.Status == models.ConversationPending || conv.Status == models.ConversationAccepted {
			conv.Status = models.ConversationBlocked
		}
	}
	return nil
}

func (s *ConversationStore) AddMessage(ctx context.Context, msg *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *ConversationStore) Messages(ctx context.Context, conversationID string, limit int) ([]models.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.DirectMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// MarkRead stamps ReadAt on every unread message addressed to readerID.
func (s *ConversationStore) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.messages[conversationID]
	if !ok {
		return nil
	}
	for i := range msgs {
		if msgs[i].RecipientID == readerID && msgs[i].ReadAt == nil {
			t := at
			msgs[i].ReadAt = &t
		}
	}
	return nil
}
