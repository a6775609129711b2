package models

import "time"

// GroupMessage is one entry in an event's shared channel. Deletion is soft:
// the record stays in storage with IsDeleted set and is filtered from every
// read path (audit requirement).
type GroupMessage struct {
	ID          string              `json:"id"`
	EventID     string              `json:"eventId"`
	SenderID    string              `json:"senderId"`
	SenderBadge string              `json:"senderBadge,omitempty"` // entitlement type shown next to the sender
	Content     string              `json:"content"`
	Type        MessageType         `json:"type"`
	IsAnonymous bool                `json:"isAnonymous,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	IsDeleted   bool                `json:"isDeleted"`
	DeletedBy   string              `json:"deletedBy,omitempty"`
	DeletedAt   *time.Time          `json:"deletedAt,omitempty"`
	Reactions   map[string][]string `json:"reactions,omitempty"` // emoji -> user ids
}

// HasReaction reports whether userID already reacted with emoji.
func (m *GroupMessage) HasReaction(emoji, userID string) bool {
	for _, id := range m.Reactions[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}
