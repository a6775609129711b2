// Package typing implements the ephemeral "user is composing" protocol.
// Indicators are leases: a writer debounces its refreshes, every lease
// carries a TTL, and readers independently discard anything stale instead
// of trusting the writer's cleanup to have run. All errors are swallowed;
// a missing typing dot must never interrupt messaging.
package typing

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
)

const (
	// Debounce is the minimum interval between presence refreshes for one
	// writer.
	Debounce = 2 * time.Second
	// TTL bounds how long an indicator may outlive a dropped clear signal.
	TTL = 5 * time.Second
)

// LeaseStore is the ephemeral broadcast store contract, backed by valkey in
// production and by the memory adapter in tests.
type LeaseStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Broadcaster fans typing events out to live subscribers.
type Broadcaster interface {
	Publish(channel string, data []byte)
}

type event struct {
	Kind      string                 `json:"kind"` // "typing" | "stopped"
	Indicator models.TypingIndicator `json:"indicator"`
}

type Presence struct {
	store LeaseStore
	hub   Broadcaster
	now   func() time.Time

	mu       sync.Mutex
	lastEmit map[string]time.Time
}

func NewPresence(store LeaseStore, hub Broadcaster) *Presence {
	return &Presence{
		store:    store,
		hub:      hub,
		now:      time.Now,
		lastEmit: make(map[string]time.Time),
	}
}

func (p *Presence) WithClock(now func() time.Time) *Presence {
	p.now = now
	return p
}

func leaseKey(scope models.TypingScope, scopeID, userID string) string {
	return leasePrefix(scope, scopeID) + userID
}

func leasePrefix(scope models.TypingScope, scopeID string) string {
	return "typing:" + string(scope) + ":" + scopeID + ":"
}

// Set emits a typing indicator. Calls inside the debounce interval are
// no-ops; store failures are dropped silently. Fire-and-forget: the caller
// must not gate anything on the outcome.
func (p *Presence) Set(ctx context.Context, scope models.TypingScope, scopeID, userID, userName string) {
	now := p.now()
	key := leaseKey(scope, scopeID, userID)

	p.mu.Lock()
	if last, ok := p.lastEmit[key]; ok && now.Sub(last) < Debounce {
		p.mu.Unlock()
		return
	}
	p.lastEmit[key] = now
	p.mu.Unlock()

	ind := models.TypingIndicator{
		Scope:     scope,
		ScopeID:   scopeID,
		UserID:    userID,
		UserName:  userName,
		Timestamp: now,
	}
	data, err := json.Marshal(ind)
	if err != nil {
		return
	}
	if err := p.store.Put(ctx, key, string(data), TTL); err != nil {
		log.Printf("[Typing] lease write dropped: %v", err)
		return
	}
	p.publish("typing", ind)
}

// Clear proactively removes the indicator on blur, send, or inactivity.
// TTL covers the case where this call never arrives.
func (p *Presence) Clear(ctx context.Context, scope models.TypingScope, scopeID, userID string) {
	key := leaseKey(scope, scopeID, userID)

	p.mu.Lock()
	delete(p.lastEmit, key)
	p.mu.Unlock()

	if err := p.store.Delete(ctx, key); err != nil {
		log.Printf("[Typing] lease clear dropped: %v", err)
	}
	p.publish("stopped", models.TypingIndicator{
		Scope:     scope,
		ScopeID:   scopeID,
		UserID:    userID,
		Timestamp: p.now(),
	})
}

// Active lists who is composing in a scope. Readers enforce staleness
// themselves: an indicator older than the TTL is excluded even if the store
// still holds it. Errors degrade to an empty list.
func (p *Presence) Active(ctx context.Context, scope models.TypingScope, scopeID string) []models.TypingIndicator {
	values, err := p.store.List(ctx, leasePrefix(scope, scopeID))
	if err != nil {
		log.Printf("[Typing] lease list dropped: %v", err)
		return nil
	}
	cutoff := p.now().Add(-TTL)
	var out []models.TypingIndicator
	for _, v := range values {
		var ind models.TypingIndicator
		if err := json.Unmarshal([]byte(v), &ind); err != nil {
			continue
		}
		if ind.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, ind)
	}
	return out
}

func (p *Presence) publish(kind string, ind models.TypingIndicator) {
	if p.hub == nil {
		return
	}
	data, err := json.Marshal(event{Kind: kind, Indicator: ind})
	if err != nil {
		return
	}
	var channel string
	if ind.Scope == models.TypingGroup {
		channel = "group:" + ind.ScopeID
	} else {
		channel = "dm:" + ind.ScopeID
	}
	p.hub.Publish(channel, data)
}
