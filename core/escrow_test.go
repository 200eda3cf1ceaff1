package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshaid/backend/domain"
)

// escrowFixture sets up a verified, in-progress task with a funded donor
// and three eligible signers.
type escrowFixture struct {
	s         *State
	creator   string
	volunteer string
	donor     string
	signers   []string
	taskID    string
	location  domain.GeoPoint
}

func newEscrowFixture(t *testing.T, opts ...Option) *escrowFixture {
	t.Helper()
	f := &escrowFixture{
		s:         newTestState(opts...),
		creator:   "0xcreator",
		volunteer: "0xvolunteer",
		donor:     "0xdonor",
		signers:   []string{"0xs1", "0xs2", "0xs3"},
		taskID:    "t1",
	}
	register(t, f.s, f.creator)
	register(t, f.s, f.volunteer)
	register(t, f.s, f.donor)
	for _, signer := range f.signers {
		register(t, f.s, signer)
		boost(t, f.s, signer, 400) // level 3
	}

	in := validTask(f.taskID)
	f.location = in.Location
	_, err := f.s.CreateTask(f.creator, in)
	require.NoError(t, err)
	verifyToThreshold(t, f.s, f.taskID)

	_, err = f.s.AcceptTask(f.volunteer, f.taskID)
	require.NoError(t, err)

	_, err = f.s.Deposit(gateway, f.donor, 1_000_000)
	require.NoError(t, err)
	return f
}

func (f *escrowFixture) donate(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.s.Donate(f.donor, f.taskID, amount)
	require.NoError(t, err)
}

func (f *escrowFixture) signAll(t *testing.T) {
	t.Helper()
	for _, signer := range f.signers {
		_, err := f.s.SignRelease(signer, f.taskID)
		require.NoError(t, err)
	}
}

func (f *escrowFixture) proveLocation(t *testing.T) {
	t.Helper()
	near := f.location
	near.LatMicro += 5_000
	_, err := f.s.SubmitLocationProof(f.volunteer, f.taskID, near)
	require.NoError(t, err)
}

func TestDepositRequiresGatewayGrant(t *testing.T) {
	s := newTestState()
	register(t, s, "0xdonor")

	_, err := s.Deposit("0xdonor", "0xdonor", 100)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	balance, err := s.Deposit(gateway, "0xdonor", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
	assert.Equal(t, int64(100), s.Balance("0xdonor"))
}

func TestDonateCreatesPoolLazily(t *testing.T) {
	f := newEscrowFixture(t)

	_, err := f.s.GetPool(f.taskID)
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)

	pool, err := f.s.Donate(f.donor, f.taskID, 250_000)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), pool.TotalAmount)
	assert.Equal(t, domain.DefaultRequiredSignatures, pool.RequiredSignatures)
	assert.Equal(t, int64(250_000), pool.Contributions[f.donor])
	assert.True(t, pool.Active)
	assert.Equal(t, int64(750_000), f.s.Balance(f.donor))
}

func TestDonateGuards(t *testing.T) {
	f := newEscrowFixture(t)

	_, err := f.s.Donate(f.donor, "missing", 100)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.s.Donate(f.donor, f.taskID, 2_000_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Pending tasks accept no donations.
	_, err = f.s.CreateTask(f.creator, validTask("t-pending"))
	require.NoError(t, err)
	_, err = f.s.Donate(f.donor, "t-pending", 100)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSignRelease(t *testing.T) {
	f := newEscrowFixture(t)
	f.donate(t, 100_000)

	pool, err := f.s.SignRelease(f.signers[0], f.taskID)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.SignatureCount)

	_, err = f.s.SignRelease(f.signers[0], f.taskID)
	assert.ErrorIs(t, err, domain.ErrAlreadySigned)

	// Level below 3 cannot sign.
	register(t, f.s, "0xmid")
	boost(t, f.s, "0xmid", 150) // 250, level 2
	_, err = f.s.SignRelease("0xmid", f.taskID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestSubmitLocationProof(t *testing.T) {
	f := newEscrowFixture(t)
	f.donate(t, 100_000)

	_, err := f.s.SubmitLocationProof(f.donor, f.taskID, f.location)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized, "only the assigned volunteer attests")

	far := f.location
	far.LonMicro += domain.LocationToleranceMicroDeg + 1
	_, err = f.s.SubmitLocationProof(f.volunteer, f.taskID, far)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	status, err := f.s.PoolStatus(f.taskID)
	require.NoError(t, err)
	assert.False(t, status.GPSVerified, "failed proof must not mark the pool")

	f.proveLocation(t)
	status, err = f.s.PoolStatus(f.taskID)
	require.NoError(t, err)
	assert.True(t, status.GPSVerified)
}

func TestReleaseFundsRequiresEveryCondition(t *testing.T) {
	f := newEscrowFixture(t)
	f.donate(t, 1_000_000)

	// Missing signatures.
	_, err := f.s.ReleaseFunds(f.taskID)
	assert.Error(t, err)

	f.signAll(t)

	// Missing location proof.
	_, err = f.s.ReleaseFunds(f.taskID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	f.proveLocation(t)

	// Task not yet completed.
	_, err = f.s.ReleaseFunds(f.taskID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.s.CompleteTask(f.creator, f.taskID)
	require.NoError(t, err)

	released, err := f.s.ReleaseFunds(f.taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), released)
	assert.Equal(t, int64(1_000_000), f.s.Balance(f.creator))

	status, err := f.s.PoolStatus(f.taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), status.ClaimedAmount)
	assert.False(t, status.CanRelease)

	// Exactly-once: the zero-remainder guard blocks a second release.
	_, err = f.s.ReleaseFunds(f.taskID)
	assert.ErrorIs(t, err, domain.ErrNothingToRelease)
}

func TestRefundAfterExpiry(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	f := newEscrowFixture(t, WithClock(clock))
	f.donate(t, 300_000)

	_, err := f.s.RefundDonations(f.taskID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "open task cannot be refunded")

	// Drive a second, pending task to expiry with its own pool.
	// The fixture task is IN_PROGRESS and cannot expire.
	in := validTask("t-exp")
	_, err = f.s.CreateTask(f.creator, in)
	require.NoError(t, err)
	verifyToThreshold(t, f.s, "t-exp")
	_, err = f.s.Donate(f.donor, "t-exp", 200_000)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = f.s.ExpireTask("t-exp")
	require.NoError(t, err)

	balanceBefore := f.s.Balance(f.donor)
	refunded, err := f.s.RefundDonations("t-exp")
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), refunded)
	assert.Equal(t, balanceBefore+200_000, f.s.Balance(f.donor))

	pool, err := f.s.GetPool("t-exp")
	require.NoError(t, err)
	assert.False(t, pool.Active)
	assert.Zero(t, pool.Contributions[f.donor])

	_, err = f.s.RefundDonations("t-exp")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "refund runs once per pool")
}

func TestRefundSkipsFailingDonor(t *testing.T) {
	failing := errors.New("wallet unreachable")
	var s *State
	payout := func(to string, amount int64, reason string) error {
		if to == "0xdonor2" {
			return failing
		}
		s.balances[to] += amount
		return nil
	}

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := newEscrowFixture(t,
		WithClock(func() time.Time { return current }),
		WithPayout(func(to string, amount int64, reason string) error {
			return payout(to, amount, reason)
		}),
	)
	s = f.s

	register(t, f.s, "0xdonor2")
	_, err := f.s.Deposit(gateway, "0xdonor2", 500_000)
	require.NoError(t, err)

	f.donate(t, 100_000)
	_, err = f.s.Donate("0xdonor2", f.taskID, 200_000)
	require.NoError(t, err)

	// Force the task into a refundable status via dispute is impossible once
	// IN_PROGRESS; cancel through the disputed path is covered elsewhere, so
	// expire a sibling task here instead.
	in := validTask("t-exp")
	_, err = f.s.CreateTask(f.creator, in)
	require.NoError(t, err)
	verifyToThreshold(t, f.s, "t-exp")
	_, err = f.s.Donate(f.donor, "t-exp", 50_000)
	require.NoError(t, err)
	_, err = f.s.Donate("0xdonor2", "t-exp", 60_000)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = f.s.ExpireTask("t-exp")
	require.NoError(t, err)

	refunded, err := f.s.RefundDonations("t-exp")
	assert.ErrorIs(t, err, failing, "failure is reported")
	assert.Equal(t, int64(50_000), refunded, "healthy donor still refunded")

	pool, err := f.s.GetPool("t-exp")
	require.NoError(t, err)
	assert.True(t, pool.Active, "pool stays active while a refund is outstanding")
	assert.Zero(t, pool.Contributions[f.donor])
	assert.Equal(t, int64(60_000), pool.Contributions["0xdonor2"])

	// Once the wallet recovers, the retry refunds only the outstanding donor.
	failing = nil
	payout = func(to string, amount int64, reason string) error {
		s.balances[to] += amount
		return nil
	}
	refunded, err = f.s.RefundDonations("t-exp")
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), refunded)

	pool, err = f.s.GetPool("t-exp")
	require.NoError(t, err)
	assert.False(t, pool.Active)
}

func TestQuorumReleaseScenario(t *testing.T) {
	// The end-to-end walk from the donation to the exactly-once release.
	f := newEscrowFixture(t)
	f.donate(t, 1_000_000)
	f.signAll(t)
	f.proveLocation(t)

	_, err := f.s.CompleteTask(f.creator, f.taskID)
	require.NoError(t, err)

	status, err := f.s.PoolStatus(f.taskID)
	require.NoError(t, err)
	assert.True(t, status.CanRelease)

	released, err := f.s.ReleaseFunds(f.taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), released)

	_, err = f.s.ReleaseFunds(f.taskID)
	assert.ErrorIs(t, err, domain.ErrNothingToRelease)
}
