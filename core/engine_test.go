package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshaid/backend/domain"
)

func validTask(id string) CreateTaskInput {
	return CreateTaskInput{
		ID:         id,
		Location:   domain.GeoPoint{LatMicro: 37_774_900, LonMicro: -122_419_400},
		Category:   domain.CategoryMedical,
		Priority:   domain.PriorityMedium,
		ContentRef: "ipfs://task/" + id,
		TTL:        time.Hour,
	}
}

// newTaskFixture registers a creator plus three level-3 verifiers.
func newTaskFixture(t *testing.T) (*State, string, []string) {
	t.Helper()
	s := newTestState()
	creator := "0xcreator"
	register(t, s, creator)

	verifiers := []string{"0xv1", "0xv2", "0xv3"}
	for _, v := range verifiers {
		register(t, s, v)
		boost(t, s, v, 400) // 100 -> 500, level 3
	}
	return s, creator, verifiers
}

func TestCreateTask(t *testing.T) {
	s, creator, _ := newTaskFixture(t)

	task, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status)
	assert.Equal(t, creator, task.Creator)
	assert.Equal(t, task.CreatedAt.Add(time.Hour), task.ExpiresAt)

	identity, err := s.GetIdentity(creator)
	require.NoError(t, err)
	assert.Equal(t, 1, identity.TasksReported)
}

func TestCreateTaskValidation(t *testing.T) {
	s, creator, _ := newTaskFixture(t)

	_, err := s.CreateTask("0xghost", validTask("t1"))
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	short := validTask("t2")
	short.TTL = time.Minute
	_, err = s.CreateTask(creator, short)
	assert.ErrorIs(t, err, domain.ErrInvalidTTL)

	long := validTask("t3")
	long.TTL = 8 * 24 * time.Hour
	_, err = s.CreateTask(creator, long)
	assert.ErrorIs(t, err, domain.ErrInvalidTTL)

	_, err = s.CreateTask(creator, validTask("t4"))
	require.NoError(t, err)
	_, err = s.CreateTask(creator, validTask("t4"))
	assert.ErrorIs(t, err, domain.ErrTaskExists)
}

func TestVerifyTaskAccumulatesTrustWeights(t *testing.T) {
	s, creator, verifiers := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	// Three level-3 verifiers sum to 9, still below the threshold of 10.
	for _, v := range verifiers {
		task, err := s.VerifyTask(v, "t1")
		require.NoError(t, err)
		assert.Equal(t, domain.TaskPending, task.Status)
	}
	info, err := s.TrustInfo("t1")
	require.NoError(t, err)
	assert.Equal(t, 9, info.VerificationScore)
	assert.Equal(t, 3, info.VerifierCount)

	// A fourth trusted verifier crosses the threshold.
	register(t, s, "0xv4")
	boost(t, s, "0xv4", 400)
	task, err := s.VerifyTask("0xv4", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskVerified, task.Status)
	assert.Equal(t, 12, task.VerificationScore)
}

func TestVerifyTaskRewardsVerifier(t *testing.T) {
	s, creator, verifiers := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	before, err := s.GetIdentity(verifiers[0])
	require.NoError(t, err)
	_, err = s.VerifyTask(verifiers[0], "t1")
	require.NoError(t, err)
	after, err := s.GetIdentity(verifiers[0])
	require.NoError(t, err)
	assert.Equal(t, before.Reputation+5, after.Reputation)
}

func TestVerifyTaskGuards(t *testing.T) {
	s, creator, verifiers := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	_, err = s.VerifyTask(verifiers[0], "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = s.VerifyTask(creator, "t1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized, "creator cannot verify own task")

	register(t, s, "0xlow") // level 1
	_, err = s.VerifyTask("0xlow", "t1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = s.VerifyTask(verifiers[0], "t1")
	require.NoError(t, err)
	_, err = s.VerifyTask(verifiers[0], "t1")
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
}

func TestVerifyExpiredTask(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New(
		WithClock(func() time.Time { return current }),
		WithAdmins(admin),
	)
	register(t, s, "0xcreator")
	register(t, s, "0xv1")
	boost(t, s, "0xv1", 400)

	_, err := s.CreateTask("0xcreator", validTask("t1"))
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = s.VerifyTask("0xv1", "t1")
	assert.ErrorIs(t, err, domain.ErrTaskExpired)
}

func verifyToThreshold(t *testing.T, s *State, taskID string) {
	t.Helper()
	for _, v := range []string{"0xw1", "0xw2", "0xw3", "0xw4"} {
		if !s.IsRegistered(v) {
			register(t, s, v)
			boost(t, s, v, 400)
		}
		_, err := s.VerifyTask(v, taskID)
		require.NoError(t, err)
	}
	task, err := s.GetTask(taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskVerified, task.Status)
}

func TestDisputeFlipsWhenScoreExceedsVerification(t *testing.T) {
	s, creator, verifiers := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	_, err = s.VerifyTask(verifiers[0], "t1")
	require.NoError(t, err)

	register(t, s, "0xd1")
	boost(t, s, "0xd1", 400)
	task, err := s.DisputeTask("0xd1", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status, "3 vs 3 does not flip")

	register(t, s, "0xd2")
	boost(t, s, "0xd2", 400)
	task, err = s.DisputeTask("0xd2", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDisputed, task.Status)

	_, err = s.DisputeTask("0xd1", "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "disputed task accepts no further disputes")
}

func TestDisputeGuards(t *testing.T) {
	s, creator, _ := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	register(t, s, "0xlow")
	_, err = s.DisputeTask("0xlow", "t1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	register(t, s, "0xd1")
	boost(t, s, "0xd1", 400)
	_, err = s.DisputeTask("0xd1", "t1")
	require.NoError(t, err)
	_, err = s.DisputeTask("0xd1", "t1")
	assert.ErrorIs(t, err, domain.ErrAlreadyDisputed)
}

func TestAcceptTask(t *testing.T) {
	s, creator, _ := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	register(t, s, "0xvolunteer")
	_, err = s.AcceptTask("0xvolunteer", "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "pending task cannot be accepted")

	verifyToThreshold(t, s, "t1")

	_, err = s.AcceptTask("0xghost", "t1")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	task, err := s.AcceptTask("0xvolunteer", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, task.Status)
	assert.Equal(t, "0xvolunteer", task.Volunteer)

	// The racing second volunteer observes the committed assignment.
	register(t, s, "0xsecond")
	_, err = s.AcceptTask("0xsecond", "t1")
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

func TestCompleteTaskRewards(t *testing.T) {
	s, creator, _ := newTaskFixture(t)
	in := validTask("t1")
	in.Priority = domain.PriorityCritical
	_, err := s.CreateTask(creator, in)
	require.NoError(t, err)
	verifyToThreshold(t, s, "t1")

	register(t, s, "0xvolunteer")
	_, err = s.AcceptTask("0xvolunteer", "t1")
	require.NoError(t, err)

	_, err = s.CompleteTask("0xvolunteer", "t1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized, "only the creator confirms completion")

	creatorBefore, err := s.GetIdentity(creator)
	require.NoError(t, err)

	task, err := s.CompleteTask(creator, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, task.Status)

	volunteer, err := s.GetIdentity("0xvolunteer")
	require.NoError(t, err)
	assert.Equal(t, domain.Reputation(200), volunteer.Reputation, "base 100 + 50 completion + 50 critical")
	assert.Equal(t, 1, volunteer.TasksCompleted)
	assert.True(t, volunteer.HasBadge(domain.BadgeFirstResponse))

	creatorAfter, err := s.GetIdentity(creator)
	require.NoError(t, err)
	assert.Equal(t, creatorBefore.Reputation+10, creatorAfter.Reputation)

	_, err = s.CompleteTask(creator, "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "double complete fails")
}

func TestCancelFalseTask(t *testing.T) {
	s, creator, verifiers := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)

	register(t, s, "0xd1")
	boost(t, s, "0xd1", 400)
	_, err = s.CancelFalseTask("0xd1", "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "only disputed tasks can be cancelled")

	_, err = s.DisputeTask("0xd1", "t1")
	require.NoError(t, err)

	register(t, s, "0xlow")
	_, err = s.CancelFalseTask("0xlow", "t1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	task, err := s.CancelFalseTask(verifiers[0], "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCancelled, task.Status)

	identity, err := s.GetIdentity(creator)
	require.NoError(t, err)
	assert.Equal(t, 1, identity.FalseReports)
	assert.Equal(t, domain.Reputation(0), identity.Reputation, "100 initial minus 100 penalty")
}

func TestExpireTask(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New(
		WithClock(func() time.Time { return current }),
		WithAdmins(admin),
	)
	register(t, s, "0xcreator")
	_, err := s.CreateTask("0xcreator", validTask("t1"))
	require.NoError(t, err)

	_, err = s.ExpireTask("t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "ttl not yet elapsed")

	current = current.Add(time.Hour)
	task, err := s.ExpireTask("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskExpired, task.Status)

	_, err = s.ExpireTask("t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "expire is not re-entrant")
}

func TestExpiryCandidates(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New(
		WithClock(func() time.Time { return current }),
		WithAdmins(admin),
	)
	register(t, s, "0xcreator")

	short := validTask("t-short")
	_, err := s.CreateTask("0xcreator", short)
	require.NoError(t, err)

	long := validTask("t-long")
	long.TTL = 48 * time.Hour
	_, err = s.CreateTask("0xcreator", long)
	require.NoError(t, err)

	assert.Empty(t, s.ExpiryCandidates())

	current = current.Add(2 * time.Hour)
	assert.Equal(t, []string{"t-short"}, s.ExpiryCandidates())
}

func TestStatusNeverRevisitsPending(t *testing.T) {
	s, creator, _ := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)
	verifyToThreshold(t, s, "t1")

	// A fresh verifier against a VERIFIED task fails: PENDING is gone for good.
	register(t, s, "0xlate")
	boost(t, s, "0xlate", 400)
	_, err = s.VerifyTask("0xlate", "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	task, err := s.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskVerified, task.Status)
}

func TestListTasks(t *testing.T) {
	s, creator, _ := newTaskFixture(t)
	_, err := s.CreateTask(creator, validTask("t1"))
	require.NoError(t, err)
	_, err = s.CreateTask(creator, validTask("t2"))
	require.NoError(t, err)

	assert.Len(t, s.ListTasks(""), 2)
	assert.Len(t, s.ListTasks(domain.TaskPending), 2)
	assert.Empty(t, s.ListTasks(domain.TaskVerified))
}
