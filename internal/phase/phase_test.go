package phase

import (
	"testing"
	"time"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC)

// TestResolve_Windows walks one representative instant through every window.
func TestResolve_Windows(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before open", start.Add(-8 * 24 * time.Hour), Expired},
		{"pre window", start.Add(-24 * time.Hour), Pre},
		{"during event", start.Add(6 * time.Hour), Live},
		{"after party", start.Add(EventDuration + 24*time.Hour), After},
		{"archived", start.Add(EventDuration + AfterWindow + 24*time.Hour), Archived},
		{"long gone", start.Add(EventDuration + AfterWindow + ArchiveWindow + time.Second), Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(start, tc.now))
		})
	}
}

// TestResolve_BoundariesBelongToLaterWindow pins the half-open interval
// contract: an instant exactly on a boundary is in the later window.
func TestResolve_BoundariesBelongToLaterWindow(t *testing.T) {
	assert.Equal(t, Pre, Resolve(start, start.Add(-PreOpenWindow)))
	assert.Equal(t, Live, Resolve(start, start))
	assert.Equal(t, After, Resolve(start, start.Add(EventDuration)))
	assert.Equal(t, Archived, Resolve(start, start.Add(EventDuration+AfterWindow)))
	assert.Equal(t, Expired, Resolve(start, start.Add(EventDuration+AfterWindow+ArchiveWindow)))
}

// TestResolve_MonotonicProgression sweeps the whole domain and verifies the
// phase only ever advances.
func TestResolve_MonotonicProgression(t *testing.T) {
	order := map[Phase]int{Pre: 0, Live: 1, After: 2, Archived: 3, Expired: 4}

	prev := -1
	for now := start.Add(-PreOpenWindow); now.Before(start.Add(EventDuration + AfterWindow + ArchiveWindow + time.Hour)); now = now.Add(time.Minute) {
		p := Resolve(start, now)
		rank, ok := order[p]
		require.True(t, ok, "unknown phase %q", p)
		require.GreaterOrEqual(t, rank, prev, "phase regressed at %v", now)
		prev = rank
	}
}

func TestResolve_Idempotent(t *testing.T) {
	now := start.Add(3 * time.Hour)
	assert.Equal(t, Resolve(start, now), Resolve(start, now))
}

func TestPhase_Interactive(t *testing.T) {
	assert.True(t, Pre.Interactive())
	assert.True(t, Live.Interactive())
	assert.True(t, After.Interactive())
	assert.False(t, Archived.Interactive())
	assert.False(t, Expired.Interactive())
	assert.True(t, Archived.ReadOnly())
}

// TestCanAccessChat_GuestlistLifecycle covers the guestlist holder whose
// event eventually closes on them.
func TestCanAccessChat_GuestlistLifecycle(t *testing.T) {
	ent := &models.Entitlement{
		UserID:  "u1",
		EventID: "e1",
		Type:    models.EntitlementGuestlistApproved,
		Status:  models.EntitlementActive,
	}

	require.NoError(t, CanAccessChat(ent, Resolve(start, start.Add(-time.Hour))))

	err := CanAccessChat(ent, Resolve(start, start.Add(30*24*time.Hour)))
	require.Error(t, err)
	assert.True(t, fault.IsDenied(err))
}

func TestCanAccessChat_NoEntitlement(t *testing.T) {
	err := CanAccessChat(nil, Live)
	require.Error(t, err)
	assert.True(t, fault.IsDenied(err))

	cancelled := &models.Entitlement{Status: models.EntitlementCancelled}
	err = CanAccessChat(cancelled, Live)
	require.Error(t, err)
	assert.True(t, fault.IsDenied(err))
}
