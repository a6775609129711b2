package models

import "time"

// EntitlementType identifies which grant source produced an entitlement.
type EntitlementType string

const (
	EntitlementTicketPurchased   EntitlementType = "ticket_purchased"
	EntitlementTicketClaimed     EntitlementType = "ticket_claimed"
	EntitlementGuestlistApproved EntitlementType = "guestlist_approved"
	EntitlementGroupTicketShare  EntitlementType = "group_ticket_share"
	EntitlementCoupleTicket      EntitlementType = "couple_ticket"
	EntitlementHost              EntitlementType = "host"
	EntitlementVenue             EntitlementType = "venue"
)

type EntitlementStatus string

const (
	EntitlementActive      EntitlementStatus = "active"
	EntitlementTransferred EntitlementStatus = "transferred"
	EntitlementCancelled   EntitlementStatus = "cancelled"
	EntitlementExpired     EntitlementStatus = "expired"
)

// Entitlement is a capability grant letting a user participate in an event's
// social layer. It is computed on demand from order/guestlist/ownership
// records and never persisted by this layer.
type Entitlement struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	EventID    string            `json:"eventId"`
	Type       EntitlementType   `json:"type"`
	Status     EntitlementStatus `json:"status"`
	TicketTier string            `json:"ticketTier,omitempty"`
	OrderID    string            `json:"orderId,omitempty"`
	GrantedAt  time.Time         `json:"grantedAt"`
	ExpiresAt  *time.Time        `json:"expiresAt,omitempty"` // advisory only; Status gates capabilities
}

// Active reports whether the grant currently confers capabilities.
func (e *Entitlement) Active() bool {
	return e != nil && e.Status == EntitlementActive
}

// Privileged reports whether the grant allows announcements and moderation.
func (e *Entitlement) Privileged() bool {
	return e != nil && (e.Type == EntitlementHost || e.Type == EntitlementVenue)
}

// External grant-source records, decoded from the backing store.

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCheckedIn OrderStatus = "checked_in"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	EventID         string      `json:"eventId"`
	Status          OrderStatus `json:"status"`
	TransferredFrom *string     `json:"transferredFrom,omitempty"` // set when the ticket was claimed from another user
	TicketTier      string      `json:"ticketTier,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type GuestlistStatus string

const (
	GuestlistPending  GuestlistStatus = "pending"
	GuestlistApproved GuestlistStatus = "approved"
	GuestlistDenied   GuestlistStatus = "denied"
)

type GuestlistEntry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	EventID    string          `json:"eventId"`
	Status     GuestlistStatus `json:"status"`
	ApprovedAt *time.Time      `json:"approvedAt,omitempty"`
}

// Event is externally owned; only the scheduled start instant matters here.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
}
