package taskflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type fakeTaskRepo struct {
	upserts []string
	fail    bool
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (f *fakeTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (f *fakeTaskRepo) Upsert(ctx context.Context, task *domain.Task) error {
	if f.fail {
		return errors.New("postgres unavailable")
	}
	f.upserts = append(f.upserts, task.ID)
	return nil
}

type fakeIdentityRepo struct {
	upserts []string
}

func (f *fakeIdentityRepo) GetByAddress(ctx context.Context, address string) (*domain.Identity, error) {
	return nil, domain.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) Upsert(ctx context.Context, identity *domain.Identity) error {
	f.upserts = append(f.upserts, identity.Address)
	return nil
}

func (f *fakeIdentityRepo) List(ctx context.Context, limit, offset int) ([]domain.Identity, error) {
	return nil, nil
}

type fakeBuffer struct {
	tasks []string
}

func (f *fakeBuffer) BufferIdentity(ctx context.Context, identity *domain.Identity) error { return nil }

func (f *fakeBuffer) BufferTask(ctx context.Context, task *domain.Task) error {
	f.tasks = append(f.tasks, task.ID)
	return nil
}

func (f *fakeBuffer) BufferPool(ctx context.Context, pool *domain.DonationPool) error { return nil }

func (f *fakeBuffer) BufferNode(ctx context.Context, account *domain.NodeAccount) error { return nil }

func (f *fakeBuffer) BufferTransfer(ctx context.Context, transfer *repository.Transfer) error {
	return nil
}

func newFixture(t *testing.T, taskRepo *fakeTaskRepo) (*UseCase, *core.State, *fakeIdentityRepo, *fakeBuffer) {
	t.Helper()

	state := core.New(core.WithClock(func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	}))
	_, err := state.Register("0xcreator", "")
	require.NoError(t, err)

	identityRepo := &fakeIdentityRepo{}
	buf := &fakeBuffer{}
	uc := New(state, taskRepo, identityRepo, buf, nil)
	return uc, state, identityRepo, buf
}

func TestCreateProjectsTaskAndCreator(t *testing.T) {
	taskRepo := &fakeTaskRepo{}
	uc, _, identityRepo, buf := newFixture(t, taskRepo)

	task, err := uc.Create(context.Background(), "0xcreator", core.CreateTaskInput{
		ID:       "t-1",
		Category: domain.CategoryMedical,
		Priority: domain.PriorityHigh,
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status)

	assert.Equal(t, []string{"t-1"}, taskRepo.upserts)
	assert.Contains(t, identityRepo.upserts, "0xcreator")
	assert.Empty(t, buf.tasks)
}

func TestCreateFallsBackToBufferWhenRepoFails(t *testing.T) {
	taskRepo := &fakeTaskRepo{fail: true}
	uc, state, _, buf := newFixture(t, taskRepo)

	_, err := uc.Create(context.Background(), "0xcreator", core.CreateTaskInput{
		ID:       "t-1",
		Category: domain.CategoryRescue,
		Priority: domain.PriorityMedium,
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	// the command still committed against the authoritative state
	task, err := state.GetTask("t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status)

	assert.Equal(t, []string{"t-1"}, buf.tasks)
}

func TestCreateErrorDoesNotProject(t *testing.T) {
	taskRepo := &fakeTaskRepo{}
	uc, _, _, buf := newFixture(t, taskRepo)

	_, err := uc.Create(context.Background(), "0xcreator", core.CreateTaskInput{
		ID:  "t-bad",
		TTL: time.Second, // below the minimum
	})
	require.ErrorIs(t, err, domain.ErrInvalidTTL)
	assert.Empty(t, taskRepo.upserts)
	assert.Empty(t, buf.tasks)
}

func TestListServesLiveStateForStatusQueries(t *testing.T) {
	taskRepo := &fakeTaskRepo{}
	uc, _, _, _ := newFixture(t, taskRepo)

	for _, id := range []string{"t-1", "t-2"} {
		_, err := uc.Create(context.Background(), "0xcreator", core.CreateTaskInput{
			ID:       id,
			Category: domain.CategoryShelter,
			Priority: domain.PriorityLow,
			TTL:      time.Hour,
		})
		require.NoError(t, err)
	}

	tasks, err := uc.List(context.Background(), repository.TaskFilter{Status: string(domain.TaskPending)})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = uc.List(context.Background(), repository.TaskFilter{Status: string(domain.TaskCompleted)})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
