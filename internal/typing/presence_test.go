package typing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	presence *Presence
	store    *memory.LeaseStore
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2025, 6, 14, 21, 0, 0, 0, time.UTC)
	f := &fixture{store: memory.NewLeaseStore(), clock: &clock}
	now := func() time.Time { return *f.clock }
	f.store.Now = now
	f.presence = NewPresence(f.store, nil).WithClock(now)
	return f
}

func TestSet_Visible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")

	active := f.presence.Active(ctx, models.TypingGroup, "e1")
	require.Len(t, active, 1)
	assert.Equal(t, "alice", active[0].UserID)
	assert.Equal(t, "Alice", active[0].UserName)
}

// TestSet_Debounced: repeat emissions inside the debounce interval do not
// refresh the lease.
func TestSet_Debounced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	first := f.presence.Active(ctx, models.TypingGroup, "e1")
	require.Len(t, first, 1)
	stamp := first[0].Timestamp

	*f.clock = f.clock.Add(Debounce / 2)
	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	assert.Equal(t, stamp, f.presence.Active(ctx, models.TypingGroup, "e1")[0].Timestamp)

	*f.clock = f.clock.Add(Debounce)
	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	refreshed := f.presence.Active(ctx, models.TypingGroup, "e1")
	require.Len(t, refreshed, 1)
	assert.True(t, refreshed[0].Timestamp.After(stamp))
}

// TestTTL_StaleIndicatorExcluded: with no clear call at all, the indicator
// is gone from every reader's view once the TTL passes.
func TestTTL_StaleIndicatorExcluded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.Set(ctx, models.TypingDM, "c1", "alice", "Alice")
	require.Len(t, f.presence.Active(ctx, models.TypingDM, "c1"), 1)

	*f.clock = f.clock.Add(TTL + time.Millisecond)
	assert.Empty(t, f.presence.Active(ctx, models.TypingDM, "c1"))
}

// TestReaderSideStaleness: even if the store still holds the lease past its
// TTL, readers exclude it by timestamp.
func TestReaderSideStaleness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := `{"scope":"group","scopeId":"e1","userId":"ghost","userName":"Ghost","timestamp":"2025-06-14T20:59:00Z"}`
	require.NoError(t, f.store.Put(ctx, "typing:group:e1:ghost", stale, time.Hour))

	assert.Empty(t, f.presence.Active(ctx, models.TypingGroup, "e1"))
}

func TestClear_Immediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	f.presence.Clear(ctx, models.TypingGroup, "e1", "alice")
	assert.Empty(t, f.presence.Active(ctx, models.TypingGroup, "e1"))

	// Clearing also resets the debounce so the next keystroke re-emits.
	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	assert.Len(t, f.presence.Active(ctx, models.TypingGroup, "e1"), 1)
}

func TestScopesIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	f.presence.Set(ctx, models.TypingDM, "c1", "bob", "Bob")

	group := f.presence.Active(ctx, models.TypingGroup, "e1")
	require.Len(t, group, 1)
	assert.Equal(t, "alice", group[0].UserID)

	dm := f.presence.Active(ctx, models.TypingDM, "c1")
	require.Len(t, dm, 1)
	assert.Equal(t, "bob", dm[0].UserID)
}

type brokenStore struct{}

func (brokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("store down")
}
func (brokenStore) Delete(ctx context.Context, key string) error { return errors.New("store down") }
func (brokenStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, errors.New("store down")
}

// TestErrorsSwallowed: presence failures never surface to callers.
func TestErrorsSwallowed(t *testing.T) {
	presence := NewPresence(brokenStore{}, nil)
	ctx := context.Background()

	presence.Set(ctx, models.TypingGroup, "e1", "alice", "Alice")
	presence.Clear(ctx, models.TypingGroup, "e1", "alice")
	assert.Empty(t, presence.Active(ctx, models.TypingGroup, "e1"))
}
