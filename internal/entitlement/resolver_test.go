package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture() (*memory.GrantStore, *Resolver) {
	grants := memory.NewGrantStore()
	return grants, NewResolver(grants, grants, grants)
}

// TestResolve_OrderBeatsGuestlist pins the precedence contract: a user
// holding both a confirmed order and an approved guestlist entry resolves
// through the order.
func TestResolve_OrderBeatsGuestlist(t *testing.T) {
	grants, resolver := newFixture()
	grants.AddOrder(models.Order{
		ID: "o1", UserID: "u1", EventID: "e1",
		Status: models.OrderConfirmed, TicketTier: "ga", CreatedAt: time.Now(),
	})
	grants.AddGuestlistEntry(models.GuestlistEntry{
		ID: "g1", UserID: "u1", EventID: "e1", Status: models.GuestlistApproved,
	})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, models.EntitlementTicketPurchased, ent.Type)
	assert.Equal(t, "o1", ent.OrderID)
	assert.True(t, ent.Active())
}

func TestResolve_TransferredOrderIsClaimed(t *testing.T) {
	grants, resolver := newFixture()
	from := "u9"
	grants.AddOrder(models.Order{
		ID: "o2", UserID: "u1", EventID: "e1",
		Status: models.OrderCheckedIn, TransferredFrom: &from,
	})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, models.EntitlementTicketClaimed, ent.Type)
}

// TestResolve_PendingTransferStillGrants covers the third source: a claimed
// ticket whose order has not settled to confirmed yet.
func TestResolve_PendingTransferStillGrants(t *testing.T) {
	grants, resolver := newFixture()
	from := "u9"
	grants.AddOrder(models.Order{
		ID: "o3", UserID: "u1", EventID: "e1",
		Status: models.OrderPending, TransferredFrom: &from,
	})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, models.EntitlementTicketClaimed, ent.Type)
}

func TestResolve_RefundedTransferDoesNotGrant(t *testing.T) {
	grants, resolver := newFixture()
	from := "u9"
	grants.AddOrder(models.Order{
		ID: "o4", UserID: "u1", EventID: "e1",
		Status: models.OrderRefunded, TransferredFrom: &from,
	})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Nil(t, ent)
}

func TestResolve_PendingGuestlistDoesNotGrant(t *testing.T) {
	grants, resolver := newFixture()
	grants.AddGuestlistEntry(models.GuestlistEntry{
		ID: "g2", UserID: "u1", EventID: "e1", Status: models.GuestlistPending,
	})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Nil(t, ent)
}

func TestResolve_Organizer(t *testing.T) {
	grants, resolver := newFixture()
	grants.AddOrganizer("e1", "hostess")

	ent, err := resolver.Resolve(context.Background(), "hostess", "e1")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, models.EntitlementHost, ent.Type)
	assert.True(t, ent.Privileged())
}

func TestResolve_NoGrant(t *testing.T) {
	_, resolver := newFixture()

	ent, err := resolver.Resolve(context.Background(), "stranger", "e1")
	require.NoError(t, err)
	assert.Nil(t, ent)
}

type failingSource struct{}

func (failingSource) TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	return nil, errors.New("store unavailable")
}

// TestResolve_SourceFailureFailsClosed verifies a backing-store error is
// surfaced as Transient rather than being skipped, so callers deny.
func TestResolve_SourceFailureFailsClosed(t *testing.T) {
	resolver := NewResolverFromSources(failingSource{})

	ent, err := resolver.Resolve(context.Background(), "u1", "e1")
	assert.Nil(t, ent)
	require.Error(t, err)
	assert.True(t, fault.IsTransient(err))
}
