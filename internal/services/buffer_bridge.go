package services

import (
	"context"
	"encoding/json"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/internal/infrastructure/buffer"
	"github.com/meshaid/backend/repository"
	"github.com/meshaid/backend/usecase"
)

// BufferBridge adapts the buffer processor to the usecase.OperationBuffer
// port. Pool and task projections carry a higher priority than identity and
// node ones so money movements drain first.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferIdentity(ctx context.Context, identity *domain.Identity) error {
	if b.processor == nil || identity == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		Ref:      identity.Address,
		Entity:   buffer.EntityIdentity,
		Data:     payload,
		Priority: 3,
	})
}

func (b *BufferBridge) BufferTask(ctx context.Context, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		Ref:      task.ID,
		Entity:   buffer.EntityTask,
		Data:     payload,
		Priority: 4,
	})
}

func (b *BufferBridge) BufferPool(ctx context.Context, pool *domain.DonationPool) error {
	if b.processor == nil || pool == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		Ref:      pool.TaskID,
		Entity:   buffer.EntityPool,
		Data:     payload,
		Priority: 5,
	})
}

func (b *BufferBridge) BufferNode(ctx context.Context, account *domain.NodeAccount) error {
	if b.processor == nil || account == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		Ref:      account.Address,
		Entity:   buffer.EntityNode,
		Data:     payload,
		Priority: 2,
	})
}

func (b *BufferBridge) BufferTransfer(ctx context.Context, transfer *repository.Transfer) error {
	if b.processor == nil || transfer == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(transfer)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		Ref:      transfer.ID,
		Entity:   buffer.EntityTransfer,
		Data:     payload,
		Priority: 5,
	})
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
