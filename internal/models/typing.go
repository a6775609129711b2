package models

import "time"

type TypingScope string

const (
	TypingGroup TypingScope = "group"
	TypingDM    TypingScope = "dm"
)

// TypingIndicator is an ephemeral lease, never part of durable history.
// Readers must discard indicators older than the protocol TTL regardless of
// whether the writer's cleanup ran.
type TypingIndicator struct {
	Scope     TypingScope `json:"scope"`
	ScopeID   string      `json:"scopeId"`
	UserID    string      `json:"userId"`
	UserName  string      `json:"userName"`
	Timestamp time.Time   `json:"timestamp"`
}
