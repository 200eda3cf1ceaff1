package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshaid/backend/domain"
)

func TestRecordRelayMintsPerPacket(t *testing.T) {
	s := newTestState()

	account, err := s.RecordRelay(reporter, "node-1", 40)
	require.NoError(t, err)
	assert.Equal(t, int64(40), account.PacketsRelayed)
	assert.Equal(t, 40*domain.RewardPerPacket, account.RewardBalance)
	assert.Equal(t, account.RewardBalance, account.TotalEarned)
	assert.Equal(t, account.RewardBalance, s.TotalMinted())
}

func TestRecordRelayAuthorization(t *testing.T) {
	s := newTestState()

	_, err := s.RecordRelay("0xeve", "node-1", 10)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = s.RecordRelay(reporter, "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = s.RecordRelay(reporter, "node-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestRecordUptimeRewardsFullBlocksOnly(t *testing.T) {
	s := newTestState()

	account, err := s.RecordUptime(reporter, "node-1", 59)
	require.NoError(t, err)
	assert.Zero(t, account.RewardBalance, "59 minutes is below one block")

	// One more minute completes the first block.
	account, err = s.RecordUptime(reporter, "node-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RewardPerUptimeBlock, account.RewardBalance)

	// 130 additional minutes complete two more blocks (10 minutes carry).
	account, err = s.RecordUptime(reporter, "node-1", 130)
	require.NoError(t, err)
	assert.Equal(t, int64(190), account.UptimeMinutes)
	assert.Equal(t, 3*domain.RewardPerUptimeBlock, account.RewardBalance)
}

func TestRecordDeliveryDeduplicatesMessages(t *testing.T) {
	s := newTestState()

	account, err := s.RecordDelivery(reporter, "node-1", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.MessagesDelivered)
	assert.Equal(t, domain.RewardPerDelivery, account.RewardBalance)

	_, err = s.RecordDelivery(reporter, "node-1", "msg-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateDelivery)

	// Another node cannot claim the same message either.
	_, err = s.RecordDelivery(reporter, "node-2", "msg-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateDelivery)
}

func TestRecordBatch(t *testing.T) {
	s := newTestState()

	err := s.RecordBatch(reporter, []ActivityReport{
		{Node: "node-1", Packets: 10, UptimeMinutes: 120, MessageIDs: []string{"m1", "m2"}},
		{Node: "node-2", Packets: 5},
	})
	require.NoError(t, err)

	first, err := s.NodeStats("node-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.PacketsRelayed)
	assert.Equal(t, int64(120), first.UptimeMinutes)
	assert.Equal(t, int64(2), first.MessagesDelivered)
	assert.Equal(t, 10*domain.RewardPerPacket+2*domain.RewardPerUptimeBlock+2*domain.RewardPerDelivery, first.RewardBalance)

	second, err := s.NodeStats("node-2")
	require.NoError(t, err)
	assert.Equal(t, int64(5), second.RewardBalance)

	// A duplicate message id inside a later batch is reported but the rest
	// of the batch still commits.
	err = s.RecordBatch(reporter, []ActivityReport{
		{Node: "node-2", Packets: 1, MessageIDs: []string{"m1", "m3"}},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateDelivery)

	second, err = s.NodeStats("node-2")
	require.NoError(t, err)
	assert.Equal(t, int64(6), second.PacketsRelayed)
	assert.Equal(t, int64(1), second.MessagesDelivered, "m3 rewarded, m1 skipped")
}

func TestMintClampsToHeadroom(t *testing.T) {
	s := newTestState()

	// Exhaust almost the entire supply, then confirm exact clamping.
	nearCap := domain.MaxRewardSupply - 3
	account := s.nodeLocked("node-1")
	s.mintLocked(account, nearCap)
	require.Equal(t, int64(3), s.RemainingMintable())

	stats, err := s.RecordRelay(reporter, "node-1", 10)
	require.NoError(t, err)
	assert.Equal(t, nearCap+3, stats.RewardBalance, "mint truncated to headroom")
	assert.Zero(t, s.RemainingMintable())

	// At the cap further issuance mints nothing but counters still advance.
	stats, err = s.RecordRelay(reporter, "node-1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stats.PacketsRelayed)
	assert.Zero(t, s.RemainingMintable())
	assert.Equal(t, domain.MaxRewardSupply, s.TotalMinted())
}

func TestActiveSince(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New(
		WithClock(func() time.Time { return current }),
		WithReporters(reporter),
	)

	_, err := s.ActiveSince("node-1", time.Hour)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = s.RecordRelay(reporter, "node-1", 1)
	require.NoError(t, err)

	active, err := s.ActiveSince("node-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, active)

	current = current.Add(3 * time.Hour)
	active, err = s.ActiveSince("node-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestNodeStatsNotFound(t *testing.T) {
	s := newTestState()
	_, err := s.NodeStats("node-ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}
