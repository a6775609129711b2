package models

import "time"

type ConversationStatus string

const (
	ConversationPending  ConversationStatus = "pending"
	ConversationAccepted ConversationStatus = "accepted"
	ConversationDeclined ConversationStatus = "declined"
	ConversationBlocked  ConversationStatus = "blocked"
)

// Conversation is a 1:1 private thread scoped to one event and one unordered
// participant pair. Participants are stored normalized (A < B) so the pair
// can be indexed uniquely.
type Conversation struct {
	ID           string             `json:"id"`
	EventID      string             `json:"eventId"`
	ParticipantA string             `json:"participantA"`
	ParticipantB string             `json:"participantB"`
	Status       ConversationStatus `json:"status"`
	InitiatedBy  string             `json:"initiatedBy"`
	CreatedAt    time.Time          `json:"createdAt"`
	AcceptedAt   *time.Time         `json:"acceptedAt,omitempty"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	IsSaved      bool               `json:"isSaved"`
	LastMessage  *MessageSummary    `json:"lastMessage,omitempty"`
}

// NormalizePair orders two user ids so (a, b) and (b, a) map to the same
// stored pair.
func NormalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other returns the participant that is not userID. Callers must have
// verified membership first.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// MessageSummary is the denormalized last-message preview kept on the
// conversation record for listing screens.
type MessageSummary struct {
	SenderID string    `json:"senderId"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
}

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageImage        MessageType = "image"
	MessageAnnouncement MessageType = "announcement"
	MessageSystem       MessageType = "system"
)

// DirectMessage exists only inside an accepted conversation and is immutable
// once created except for ReadAt.
type DirectMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	RecipientID    string      `json:"recipientId"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	CreatedAt      time.Time   `json:"createdAt"`
	ReadAt         *time.Time  `json:"readAt,omitempty"`
}
