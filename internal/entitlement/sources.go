package entitlement

import (
	"context"

	"github.com/encorelive/encore-backend/internal/models"
)

// orderSource grants from a confirmed or checked-in order. An order carrying
// a transfer marker was claimed from another attendee rather than purchased.
type orderSource struct {
	orders OrderStore
}

func (s *orderSource) TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	orders, err := s.orders.OrdersForUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Status != models.OrderConfirmed && o.Status != models.OrderCheckedIn {
			continue
		}
		typ := models.EntitlementTicketPurchased
		if o.TransferredFrom != nil {
			typ = models.EntitlementTicketClaimed
		}
		return grantFromOrder(o, typ), nil
	}
	return nil, nil
}

// guestlistSource grants from an approved guestlist entry.
type guestlistSource struct {
	guestlist GuestlistStore
}

func (s *guestlistSource) TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	entry, err := s.guestlist.GuestlistEntry(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Status != models.GuestlistApproved {
		return nil, nil
	}
	grantedAt := entry.ApprovedAt
	ent := &models.Entitlement{
		ID:      "guestlist:" + entry.ID,
		UserID:  userID,
		EventID: eventID,
		Type:    models.EntitlementGuestlistApproved,
		Status:  models.EntitlementActive,
	}
	if grantedAt != nil {
		ent.GrantedAt = *grantedAt
	}
	return ent, nil
}

// transferSource catches claimed tickets whose order never reached the
// confirmed filter above, e.g. a transfer still settling. Cancelled and
// refunded orders stay excluded.
type transferSource struct {
	orders OrderStore
}

func (s *transferSource) TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	orders, err := s.orders.OrdersForUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.TransferredFrom == nil {
			continue
		}
		if o.Status == models.OrderCancelled || o.Status == models.OrderRefunded {
			continue
		}
		return grantFromOrder(o, models.EntitlementTicketClaimed), nil
	}
	return nil, nil
}

// hostSource grants the host role to the event's organizer or partner-owner.
type hostSource struct {
	ownership OwnershipStore
}

func (s *hostSource) TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	owner, err := s.ownership.IsOrganizer(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, nil
	}
	return &models.Entitlement{
		ID:      "host:" + eventID + ":" + userID,
		UserID:  userID,
		EventID: eventID,
		Type:    models.EntitlementHost,
		Status:  models.EntitlementActive,
	}, nil
}

func grantFromOrder(o models.Order, typ models.EntitlementType) *models.Entitlement {
	return &models.Entitlement{
		ID:         "order:" + o.ID,
		UserID:     o.UserID,
		EventID:    o.EventID,
		Type:       typ,
		Status:     models.EntitlementActive,
		TicketTier: o.TicketTier,
		OrderID:    o.ID,
		GrantedAt:  o.CreatedAt,
	}
}
