package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
	"github.com/meshaid/backend/usecase"
)

// Transfer kinds recorded in the audit trail.
const (
	KindDeposit  = "deposit"
	KindDonation = "donation"
	KindRelease  = "release"
	KindRefund   = "refund"
)

// UseCase fronts the donation escrow. Committed movements are appended to
// the transfer audit trail and the pool projection is written through.
type UseCase struct {
	state     *core.State
	pools     repository.PoolRepository
	transfers repository.TransferRepository
	buffer    usecase.OperationBuffer
	logger    *zap.Logger
}

func New(
	state *core.State,
	pools repository.PoolRepository,
	transfers repository.TransferRepository,
	buffer usecase.OperationBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		state:     state,
		pools:     pools,
		transfers: transfers,
		buffer:    buffer,
		logger:    logger,
	}
}

func (uc *UseCase) Deposit(ctx context.Context, caller, target string, amount int64) (int64, error) {
	balance, err := uc.state.Deposit(caller, target, amount)
	if err != nil {
		return 0, err
	}
	uc.recordTransfer(ctx, &repository.Transfer{
		From:   caller,
		To:     target,
		Amount: amount,
		Kind:   KindDeposit,
	})
	return balance, nil
}

func (uc *UseCase) Balance(address string) int64 {
	return uc.state.Balance(address)
}

func (uc *UseCase) Donate(ctx context.Context, caller, taskID string, amount int64) (*domain.DonationPool, error) {
	pool, err := uc.state.Donate(caller, taskID, amount)
	if err != nil {
		return nil, err
	}
	uc.projectPool(ctx, pool)
	uc.recordTransfer(ctx, &repository.Transfer{
		TaskID: taskID,
		From:   caller,
		To:     taskID,
		Amount: amount,
		Kind:   KindDonation,
	})
	return pool, nil
}

func (uc *UseCase) SignRelease(ctx context.Context, caller, taskID string) (*domain.DonationPool, error) {
	pool, err := uc.state.SignRelease(caller, taskID)
	if err != nil {
		return nil, err
	}
	uc.projectPool(ctx, pool)
	return pool, nil
}

func (uc *UseCase) SubmitLocationProof(ctx context.Context, caller, taskID string, location domain.GeoPoint) (*domain.DonationPool, error) {
	pool, err := uc.state.SubmitLocationProof(caller, taskID, location)
	if err != nil {
		return nil, err
	}
	uc.projectPool(ctx, pool)
	return pool, nil
}

func (uc *UseCase) Release(ctx context.Context, taskID string) (int64, error) {
	released, err := uc.state.ReleaseFunds(taskID)
	if err != nil {
		return 0, err
	}

	task, taskErr := uc.state.GetTask(taskID)
	creator := ""
	if taskErr == nil {
		creator = task.Creator
	}
	uc.recordTransfer(ctx, &repository.Transfer{
		TaskID: taskID,
		From:   taskID,
		To:     creator,
		Amount: released,
		Kind:   KindRelease,
	})
	uc.projectPoolByTask(ctx, taskID)
	return released, nil
}

// Refund fans contributions back to their donors. Partial failures leave the
// failed contributions recorded so a later call can retry them; each donor
// actually repaid gets one audit row.
func (uc *UseCase) Refund(ctx context.Context, taskID string) (int64, error) {
	before, err := uc.state.GetPool(taskID)
	if err != nil {
		return 0, err
	}

	refunded, refundErr := uc.state.RefundDonations(taskID)
	if refunded > 0 {
		after, getErr := uc.state.GetPool(taskID)
		if getErr == nil {
			for donor, amount := range before.Contributions {
				if amount > 0 && after.Contributions[donor] == 0 {
					uc.recordTransfer(ctx, &repository.Transfer{
						TaskID: taskID,
						From:   taskID,
						To:     donor,
						Amount: amount,
						Kind:   KindRefund,
					})
				}
			}
		}
		uc.projectPoolByTask(ctx, taskID)
	}
	return refunded, refundErr
}

func (uc *UseCase) PoolStatus(taskID string) (*domain.PoolStatus, error) {
	return uc.state.PoolStatus(taskID)
}

func (uc *UseCase) GetPool(taskID string) (*domain.DonationPool, error) {
	return uc.state.GetPool(taskID)
}

func (uc *UseCase) Transfers(ctx context.Context, taskID string, limit int) ([]repository.Transfer, error) {
	if uc.transfers == nil {
		return nil, nil
	}
	return uc.transfers.ListByTask(ctx, taskID, limit)
}

func (uc *UseCase) projectPoolByTask(ctx context.Context, taskID string) {
	pool, err := uc.state.GetPool(taskID)
	if err != nil {
		return
	}
	uc.projectPool(ctx, pool)
}

func (uc *UseCase) projectPool(ctx context.Context, pool *domain.DonationPool) {
	if uc.pools == nil || pool == nil {
		return
	}
	if err := uc.pools.Upsert(ctx, pool); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferPool(ctx, pool); bufErr == nil {
				uc.logger.Warn("pool projection buffered", zap.String("task_id", pool.TaskID), zap.Error(err))
				return
			}
		}
		uc.logger.Error("pool projection failed", zap.String("task_id", pool.TaskID), zap.Error(err))
	}
}

func (uc *UseCase) recordTransfer(ctx context.Context, transfer *repository.Transfer) {
	if uc.transfers == nil || transfer == nil {
		return
	}
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}
	if err := uc.transfers.Record(ctx, transfer); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferTransfer(ctx, transfer); bufErr == nil {
				uc.logger.Warn("transfer audit buffered", zap.String("kind", transfer.Kind), zap.Error(err))
				return
			}
		}
		uc.logger.Error("transfer audit failed", zap.String("kind", transfer.Kind), zap.Error(err))
	}
}
