package models

import "time"

// Block is a directed edge, but enforcement is always symmetric: either
// party having blocked the other suppresses all new interaction.
type Block struct {
	BlockerID string    `json:"blockerId"`
	BlockedID string    `json:"blockedId"`
	EventID   string    `json:"eventId,omitempty"` // empty for global blocks
	IsGlobal  bool      `json:"isGlobal"`
	CreatedAt time.Time `json:"createdAt"`
}

// Mute suppresses a user's future posting in one event's group channel.
// A nil ExpiresAt means permanent.
type Mute struct {
	ID        string     `json:"id"`
	EventID   string     `json:"eventId"`
	UserID    string     `json:"userId"`
	MutedBy   string     `json:"mutedBy"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ActiveAt reports whether the mute is in force at t.
func (m *Mute) ActiveAt(t time.Time) bool {
	if m == nil {
		return false
	}
	return m.ExpiresAt == nil || t.Before(*m.ExpiresAt)
}

// ChatRemoval permanently bars a user from an event's group channel.
type ChatRemoval struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	RemovedBy string    `json:"removedBy"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReportCategory string

const (
	ReportSpam          ReportCategory = "spam"
	ReportHarassment    ReportCategory = "harassment"
	ReportInappropriate ReportCategory = "inappropriate"
	ReportOther         ReportCategory = "other"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
	ReportActioned  ReportStatus = "actioned"
)

type Report struct {
	ID          string         `json:"id"`
	ReporterID  string         `json:"reporterId"`
	ReportedID  string         `json:"reportedId"`
	Category    ReportCategory `json:"category"`
	Description string         `json:"description,omitempty"`
	EventID     string         `json:"eventId,omitempty"`
	MessageID   string         `json:"messageId,omitempty"`
	Status      ReportStatus   `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	ResolvedAt  *time.Time     `json:"resolvedAt,omitempty"`
}
