package taskflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
	"github.com/meshaid/backend/usecase"
)

// UseCase drives the help-request lifecycle. Every mutation commits against
// the core state, then the task projection (and the identities whose
// reputation moved with it) is written through to Postgres.
type UseCase struct {
	state      *core.State
	tasks      repository.TaskRepository
	identities repository.IdentityRepository
	buffer     usecase.OperationBuffer
	logger     *zap.Logger
}

func New(
	state *core.State,
	tasks repository.TaskRepository,
	identities repository.IdentityRepository,
	buffer usecase.OperationBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		state:      state,
		tasks:      tasks,
		identities: identities,
		buffer:     buffer,
		logger:     logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, caller string, in core.CreateTaskInput) (*domain.Task, error) {
	task, err := uc.state.CreateTask(caller, in)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	uc.projectIdentity(ctx, caller)
	return task, nil
}

func (uc *UseCase) Verify(ctx context.Context, caller, taskID string) (*domain.Task, error) {
	task, err := uc.state.VerifyTask(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	uc.projectIdentity(ctx, caller)
	return task, nil
}

func (uc *UseCase) Dispute(ctx context.Context, caller, taskID string) (*domain.Task, error) {
	task, err := uc.state.DisputeTask(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	return task, nil
}

func (uc *UseCase) Accept(ctx context.Context, caller, taskID string) (*domain.Task, error) {
	task, err := uc.state.AcceptTask(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	return task, nil
}

func (uc *UseCase) Complete(ctx context.Context, caller, taskID string) (*domain.Task, error) {
	task, err := uc.state.CompleteTask(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	uc.projectIdentity(ctx, task.Volunteer)
	uc.projectIdentity(ctx, task.Creator)
	return task, nil
}

func (uc *UseCase) CancelFalse(ctx context.Context, caller, taskID string) (*domain.Task, error) {
	task, err := uc.state.CancelFalseTask(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	uc.projectIdentity(ctx, task.Creator)
	return task, nil
}

func (uc *UseCase) Expire(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := uc.state.ExpireTask(taskID)
	if err != nil {
		return nil, err
	}
	uc.projectTask(ctx, task)
	return task, nil
}

func (uc *UseCase) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return uc.state.GetTask(taskID)
}

func (uc *UseCase) TrustInfo(taskID string) (*domain.TrustInfo, error) {
	return uc.state.TrustInfo(taskID)
}

// List serves live state when only a status filter is given, and falls back
// to the projection store for creator/category queries.
func (uc *UseCase) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.Creator == "" && filter.Category == "" && uc.tasks != nil {
		tasks := uc.state.ListTasks(domain.TaskStatus(filter.Status))
		if filter.Limit > 0 && len(tasks) > filter.Limit {
			tasks = tasks[:filter.Limit]
		}
		return tasks, nil
	}
	return uc.tasks.List(ctx, filter)
}

// ExpiryCandidates exposes the open tasks whose TTL elapsed, for the sweeper.
func (uc *UseCase) ExpiryCandidates() []string {
	return uc.state.ExpiryCandidates()
}

func (uc *UseCase) projectTask(ctx context.Context, task *domain.Task) {
	if uc.tasks == nil || task == nil {
		return
	}
	if err := uc.tasks.Upsert(ctx, task); err != nil {
		uc.bufferTask(ctx, task, err)
	}
}

func (uc *UseCase) bufferTask(ctx context.Context, task *domain.Task, cause error) {
	if uc.buffer == nil {
		uc.logger.Error("task projection failed", zap.String("task_id", task.ID), zap.Error(cause))
		return
	}
	if err := uc.buffer.BufferTask(ctx, task); err != nil {
		uc.logger.Error("failed to buffer task projection", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	uc.logger.Warn("task projection buffered", zap.String("task_id", task.ID), zap.Error(cause))
}

func (uc *UseCase) projectIdentity(ctx context.Context, address string) {
	if uc.identities == nil || address == "" {
		return
	}
	identity, err := uc.state.GetIdentity(address)
	if err != nil {
		return
	}
	if err := uc.identities.Upsert(ctx, identity); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferIdentity(ctx, identity); bufErr == nil {
				uc.logger.Warn("identity projection buffered", zap.String("address", address), zap.Error(err))
				return
			}
		}
		uc.logger.Error("identity projection failed", zap.String("address", address), zap.Error(err))
	}
}
