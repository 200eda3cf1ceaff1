package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshaid/backend/domain"
)

const (
	admin    = "0xadmin"
	reporter = "0xreporter"
	gateway  = "0xgateway"
)

func newTestState(opts ...Option) *State {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{
		WithClock(func() time.Time { return base }),
		WithAdmins(admin),
		WithReporters(reporter),
		WithGateways(gateway),
	}, opts...)
	return New(opts...)
}

// boost raises a participant's reputation through the authorized path.
func boost(t *testing.T, s *State, address string, delta int) {
	t.Helper()
	_, err := s.UpdateReputation(admin, address, delta)
	require.NoError(t, err)
}

func register(t *testing.T, s *State, address string) {
	t.Helper()
	_, err := s.Register(address, "ipfs://profile/"+address)
	require.NoError(t, err)
}

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	s := newTestState()

	first, err := s.Register("0xaaa", "ipfs://a")
	require.NoError(t, err)
	second, err := s.Register("0xbbb", "ipfs://b")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.IdentityID)
	assert.Equal(t, uint64(2), second.IdentityID)
	assert.Equal(t, domain.Reputation(100), first.Reputation)
	assert.Equal(t, 1, first.TrustLevel())
	assert.Zero(t, first.TasksCompleted)
	assert.Zero(t, first.FalseReports)
}

func TestRegisterIsExactlyOnce(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	_, err := s.Register("0xaaa", "ipfs://again")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	// The id counter must not burn an id on the failed attempt.
	next, err := s.Register("0xbbb", "ipfs://b")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.IdentityID)
}

func TestTrustLevelBands(t *testing.T) {
	cases := []struct {
		reputation domain.Reputation
		level      int
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{199, 1},
		{200, 2},
		{499, 2},
		{500, 3},
		{799, 3},
		{800, 4},
		{1000, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, tc.reputation.TrustLevel(), "reputation %d", tc.reputation)
	}
}

func TestTrustLevelOfUnregistered(t *testing.T) {
	s := newTestState()
	assert.Equal(t, 0, s.TrustLevel("0xghost"))
	assert.False(t, s.IsRegistered("0xghost"))
}

func TestUpdateReputationSaturates(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	score, err := s.UpdateReputation(admin, "0xaaa", 5000)
	require.NoError(t, err)
	assert.Equal(t, domain.Reputation(1000), score)

	score, err = s.UpdateReputation(admin, "0xaaa", -5000)
	require.NoError(t, err)
	assert.Equal(t, domain.Reputation(0), score)
}

func TestUpdateReputationAuthorization(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")
	register(t, s, "0xeve")

	_, err := s.UpdateReputation("0xeve", "0xaaa", 100)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = s.UpdateReputation(admin, "0xghost", 100)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	// A granted updater may apply deltas, and loses the grant on revoke.
	require.NoError(t, s.Grant(admin, "0xeve", domain.RoleUpdater))
	_, err = s.UpdateReputation("0xeve", "0xaaa", 10)
	assert.NoError(t, err)

	require.NoError(t, s.Revoke(admin, "0xeve", domain.RoleUpdater))
	_, err = s.UpdateReputation("0xeve", "0xaaa", 10)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestGrantRequiresAdmin(t *testing.T) {
	s := newTestState()
	register(t, s, "0xeve")

	err := s.Grant("0xeve", "0xeve", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCompletionMilestoneBadges(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	require.NoError(t, s.IncrementCompleted(admin, "0xaaa"))
	identity, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.True(t, identity.HasBadge(domain.BadgeFirstResponse))
	assert.False(t, identity.HasBadge(domain.BadgeVeteranResponse))

	for i := 0; i < 9; i++ {
		require.NoError(t, s.IncrementCompleted(admin, "0xaaa"))
	}
	identity, err = s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, 10, identity.TasksCompleted)
	assert.True(t, identity.HasBadge(domain.BadgeVeteranResponse))
}

func TestReporterMilestoneBadge(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	for i := 0; i < 50; i++ {
		require.NoError(t, s.IncrementReported(admin, "0xaaa"))
	}
	identity, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, 50, identity.TasksReported)
	assert.True(t, identity.HasBadge(domain.BadgeTrustedReporter))
}

func TestRecordFalseReportPenalty(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	require.NoError(t, s.RecordFalseReport(admin, "0xaaa"))
	identity, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, 1, identity.FalseReports)
	// 100 initial - 100 penalty floors at zero, never below.
	assert.Equal(t, domain.Reputation(0), identity.Reputation)

	require.NoError(t, s.RecordFalseReport(admin, "0xaaa"))
	identity, err = s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, 2, identity.FalseReports)
	assert.Equal(t, domain.Reputation(0), identity.Reputation)
}

func TestVerifyIdentityIdempotent(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	require.NoError(t, s.VerifyIdentity(admin, "0xaaa"))
	require.NoError(t, s.VerifyIdentity(admin, "0xaaa"))

	identity, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.True(t, identity.IsVerified)

	assert.ErrorIs(t, s.VerifyIdentity("0xaaa", "0xaaa"), domain.ErrNotAuthorized)
	assert.ErrorIs(t, s.VerifyIdentity(admin, "0xghost"), domain.ErrIdentityNotFound)
}

func TestIdentitySnapshotIsDetached(t *testing.T) {
	s := newTestState()
	register(t, s, "0xaaa")

	snapshot, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	snapshot.Reputation = 999
	snapshot.Badges["forged"] = true

	fresh, err := s.GetIdentity("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, domain.Reputation(100), fresh.Reputation)
	assert.False(t, fresh.HasBadge("forged"))
}
