package incentive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
	"github.com/meshaid/backend/usecase"
)

// UseCase fronts the mesh-node incentive ledger.
type UseCase struct {
	state  *core.State
	nodes  repository.NodeRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(state *core.State, nodes repository.NodeRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		state:  state,
		nodes:  nodes,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) RecordRelay(ctx context.Context, caller, node string, packets int64) (*domain.NodeAccount, error) {
	account, err := uc.state.RecordRelay(caller, node, packets)
	if err != nil {
		return nil, err
	}
	uc.project(ctx, account)
	return account, nil
}

func (uc *UseCase) RecordUptime(ctx context.Context, caller, node string, minutes int64) (*domain.NodeAccount, error) {
	account, err := uc.state.RecordUptime(caller, node, minutes)
	if err != nil {
		return nil, err
	}
	uc.project(ctx, account)
	return account, nil
}

func (uc *UseCase) RecordDelivery(ctx context.Context, caller, node, messageID string) (*domain.NodeAccount, error) {
	account, err := uc.state.RecordDelivery(caller, node, messageID)
	if err != nil {
		return nil, err
	}
	uc.project(ctx, account)
	return account, nil
}

// RecordBatch commits a reporter's batch. Duplicate message ids surface in
// the returned error while the remainder of the batch still lands, so the
// touched nodes are projected regardless.
func (uc *UseCase) RecordBatch(ctx context.Context, caller string, reports []core.ActivityReport) error {
	err := uc.state.RecordBatch(caller, reports)
	if err == domain.ErrNotAuthorized {
		return err
	}
	for _, report := range reports {
		if report.Node == "" {
			continue
		}
		if account, statErr := uc.state.NodeStats(report.Node); statErr == nil {
			uc.project(ctx, account)
		}
	}
	return err
}

func (uc *UseCase) NodeStats(node string) (*domain.NodeAccount, error) {
	return uc.state.NodeStats(node)
}

func (uc *UseCase) ActiveSince(node string, window time.Duration) (bool, error) {
	return uc.state.ActiveSince(node, window)
}

func (uc *UseCase) TotalMinted() int64 {
	return uc.state.TotalMinted()
}

func (uc *UseCase) RemainingMintable() int64 {
	return uc.state.RemainingMintable()
}

func (uc *UseCase) project(ctx context.Context, account *domain.NodeAccount) {
	if uc.nodes == nil || account == nil {
		return
	}
	if err := uc.nodes.Upsert(ctx, account); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferNode(ctx, account); bufErr == nil {
				uc.logger.Warn("node projection buffered", zap.String("node", account.Address), zap.Error(err))
				return
			}
		}
		uc.logger.Error("node projection failed", zap.String("node", account.Address), zap.Error(err))
	}
}
