// Package entitlement resolves which capability grant, if any, a user holds
// for an event. Grants come from several independent backing collections
// (orders, guestlist, event ownership); the resolver consults them as an
// ordered list of sources and the first active match wins.
package entitlement

import (
	"context"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
)

// Source is one grant strategy. A source returns (nil, nil) when it simply
// has no grant for the pair; an error means the backing store could not
// answer, which the resolver fails closed on.
type Source interface {
	TryResolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error)
}

// OrderStore reads ticket orders from the externally-owned store.
type OrderStore interface {
	OrdersForUser(ctx context.Context, userID, eventID string) ([]models.Order, error)
}

// GuestlistStore reads guestlist entries.
type GuestlistStore interface {
	GuestlistEntry(ctx context.Context, userID, eventID string) (*models.GuestlistEntry, error)
}

// OwnershipStore reads organizer / partner-owner records.
type OwnershipStore interface {
	IsOrganizer(ctx context.Context, userID, eventID string) (bool, error)
}

type Resolver struct {
	sources []Source
}

// NewResolver wires the canonical source precedence: confirmed orders, then
// approved guestlist entries, then claimed transfers, then event ownership.
func NewResolver(orders OrderStore, guestlist GuestlistStore, ownership OwnershipStore) *Resolver {
	return &Resolver{sources: []Source{
		&orderSource{orders: orders},
		&guestlistSource{guestlist: guestlist},
		&transferSource{orders: orders},
		&hostSource{ownership: ownership},
	}}
}

// NewResolverFromSources exists so new grant types can be slotted in without
// touching the iteration logic, and so tests can inject failing sources.
func NewResolverFromSources(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve returns the strongest applicable grant or (nil, nil) when no
// source matches. Callers must re-resolve on every capability check; grants
// can be revoked externally (refunds, guestlist removal) at any time.
//
// A source error propagates as fault.Transient: the caller cannot tell
// "no entitlement" from "entitlement unknown" and must deny either way.
func (r *Resolver) Resolve(ctx context.Context, userID, eventID string) (*models.Entitlement, error) {
	for _, src := range r.sources {
		ent, err := src.TryResolve(ctx, userID, eventID)
		if err != nil {
			return nil, fault.Transient("could not verify event access", err)
		}
		if ent != nil {
			return ent, nil
		}
	}
	return nil, nil
}
