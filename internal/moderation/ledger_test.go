package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) (*Ledger, *memory.ConversationStore) {
	t.Helper()
	convs := memory.NewConversationStore()
	return NewLedger(memory.NewModerationStore(), convs), convs
}

// TestIsBlocked_Symmetric: a single directed block suppresses interaction
// in both directions.
func TestIsBlocked_Symmetric(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Block(ctx, "alice", "bob", "e1", false))

	blocked, err := ledger.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = ledger.IsBlocked(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestBlock_Self(t *testing.T) {
	ledger, _ := newLedger(t)
	err := ledger.Block(context.Background(), "alice", "alice", "e1", false)
	require.Error(t, err)
	assert.True(t, fault.IsDenied(err))
}

// TestBlock_FlipsLiveConversation: blocking transitions an existing pending
// or accepted conversation to blocked as a side effect.
func TestBlock_FlipsLiveConversation(t *testing.T) {
	ledger, convs := newLedger(t)
	ctx := context.Background()

	a, b := models.NormalizePair("alice", "bob")
	conv, err := convs.Create(ctx, &models.Conversation{
		ID: "c1", EventID: "e1", ParticipantA: a, ParticipantB: b,
		Status: models.ConversationAccepted, InitiatedBy: "alice",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, ledger.Block(ctx, "bob", "alice", "e1", false))

	got, err := convs.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationBlocked, got.Status)
}

// TestUnblock_DoesNotRestoreConversation: removing the block leaves the
// conversation blocked; the pair has to initiate again.
func TestUnblock_DoesNotRestoreConversation(t *testing.T) {
	ledger, convs := newLedger(t)
	ctx := context.Background()

	a, b := models.NormalizePair("alice", "bob")
	conv, err := convs.Create(ctx, &models.Conversation{
		ID: "c1", EventID: "e1", ParticipantA: a, ParticipantB: b,
		Status: models.ConversationAccepted, InitiatedBy: "alice",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, ledger.Block(ctx, "alice", "bob", "e1", false))
	require.NoError(t, ledger.Unblock(ctx, "alice", "bob", "e1"))

	blocked, err := ledger.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)

	got, err := convs.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationBlocked, got.Status)
}

func TestIsMuted_ExpiryRespected(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)
	clock := now
	ledger.WithClock(func() time.Time { return clock })

	_, err := ledger.Mute(ctx, "e1", "loudmouth", "host", "spamming", 10*time.Minute)
	require.NoError(t, err)

	muted, err := ledger.IsMuted(ctx, "e1", "loudmouth")
	require.NoError(t, err)
	assert.True(t, muted)

	clock = now.Add(11 * time.Minute)
	muted, err = ledger.IsMuted(ctx, "e1", "loudmouth")
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestIsMuted_PermanentMute(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	_, err := ledger.Mute(ctx, "e1", "loudmouth", "host", "", 0)
	require.NoError(t, err)

	muted, err := ledger.IsMuted(ctx, "e1", "loudmouth")
	require.NoError(t, err)
	assert.True(t, muted)
}

func TestIsRemoved(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	removed, err := ledger.IsRemoved(ctx, "e1", "trouble")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = ledger.Remove(ctx, "e1", "trouble", "host", "harassment")
	require.NoError(t, err)

	removed, err = ledger.IsRemoved(ctx, "e1", "trouble")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestReport_Lifecycle(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	report, err := ledger.Report(ctx, "alice", "bob", models.ReportHarassment, "dm abuse", "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, report.Status)

	reports := ledger.Reports(ctx, "e1")
	require.Len(t, reports, 1)

	require.NoError(t, ledger.ResolveReport(ctx, report.ID, models.ReportActioned))
	reports = ledger.Reports(ctx, "e1")
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportActioned, reports[0].Status)
	assert.NotNil(t, reports[0].ResolvedAt)
}

func TestReport_Self(t *testing.T) {
	ledger, _ := newLedger(t)
	_, err := ledger.Report(context.Background(), "alice", "alice", models.ReportSpam, "", "e1", "")
	require.Error(t, err)
	assert.True(t, fault.IsDenied(err))
}

func TestResolveReport_Unknown(t *testing.T) {
	ledger, _ := newLedger(t)
	err := ledger.ResolveReport(context.Background(), "nope", models.ReportDismissed)
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}
