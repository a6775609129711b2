package memory

import (
	"context"
	"sync"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
)

// GroupMessageStore holds the per-event broadcast channel in memory.
// Deleted messages stay in the slice; read paths filter them.
type GroupMessageStore struct {
	mu       sync.RWMutex
	messages map[string]*models.GroupMessage // messageID -> record
	byEvent  map[string][]string             // eventID -> messageIDs in insert order
}

func NewGroupMessageStore() *GroupMessageStore {
	return &GroupMessageStore{
		messages: make(map[string]*models.GroupMessage),
		byEvent:  make(map[string][]string),
	}
}

func (s *GroupMessageStore) Add(ctx context.Context, msg *models.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	s.messages[stored.ID] = &stored
	s.byEvent[stored.EventID] = append(s.byEvent[stored.EventID], stored.ID)
	return nil
}

func (s *GroupMessageStore) Get(ctx context.Context, id string) (*models.GroupMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyMessage(msg)
	return &out, nil
}

// List returns the newest non-deleted messages for an event, oldest first,
// capped at limit when limit > 0.
func (s *GroupMessageStore) List(ctx context.Context, eventID string, limit int) ([]*models.GroupMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GroupMessage
	for _, id := range s.byEvent[eventID] {
		msg := s.messages[id]
		if msg.IsDeleted {
			continue
		}
		m := copyMessage(msg)
		out = append(out, &m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *GroupMessageStore) MarkDeleted(ctx context.Context, id, deletedBy string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.IsDeleted = true
	msg.DeletedBy = deletedBy
	t := at
	msg.DeletedAt = &t
	return nil
}

// ToggleReaction adds userID under emoji if absent, removes it if present,
// and reports whether the reaction is now present.
func (s *GroupMessageStore) ToggleReaction(ctx context.Context, id, emoji, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return false, ErrNotFound
	}
	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}
	users := msg.Reactions[emoji]
	for i, u := range users {
		if u == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(msg.Reactions, emoji)
			} else {
				msg.Reactions[emoji] = users
			}
			return false, nil
		}
	}
	msg.Reactions[emoji] = append(users, userID)
	return true, nil
}

func copyMessage(msg *models.GroupMessage) models.GroupMessage {
	out := *msg
	if msg.Reactions != nil {
		out.Reactions = make(map[string][]string, len(msg.Reactions))
		for emoji, users := range msg.Reactions {
			out.Reactions[emoji] = append([]string(nil), users...)
		}
	}
	return out
}
