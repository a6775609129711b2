package memory

import (
	"context"
	"sync"

	"github.com/encorelive/encore-backend/internal/models"
)

// GrantStore holds the external grant-source records (orders, guestlist,
// ownership) in memory. The server uses it when no postgres DSN is
// configured; tests seed it directly.
type GrantStore struct {
	mu         sync.RWMutex
	orders     map[string][]models.Order         // userID|eventID -> orders
	guestlist  map[string]models.GuestlistEntry  // userID|eventID -> entry
	organizers map[string]map[string]bool        // eventID -> userID set
}

func NewGrantStore() *GrantStore {
	return &GrantStore{
		orders:     make(map[string][]models.Order),
		guestlist:  make(map[string]models.GuestlistEntry),
		organizers: make(map[string]map[string]bool),
	}
}

func grantKey(userID, eventID string) string {
	return userID + "|" + eventID
}

func (s *GrantStore) AddOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := grantKey(o.UserID, o.EventID)
	s.orders[k] = append(s.orders[k], o)
}

func (s *GrantStore) AddGuestlistEntry(e models.GuestlistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestlist[grantKey(e.UserID, e.EventID)] = e
}

func (s *GrantStore) AddOrganizer(eventID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.organizers[eventID] == nil {
		s.organizers[eventID] = make(map[string]bool)
	}
	s.organizers[eventID][userID] = true
}

func (s *GrantStore) OrdersForUser(ctx context.Context, userID, eventID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := s.orders[grantKey(userID, eventID)]
	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out, nil
}

func (s *GrantStore) GuestlistEntry(ctx context.Context, userID, eventID string) (*models.GuestlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.guestlist[grantKey(userID, eventID)]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *GrantStore) IsOrganizer(ctx context.Context, userID, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.organizers[eventID][userID], nil
}
