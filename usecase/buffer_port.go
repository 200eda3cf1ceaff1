package usecase

import (
	"context"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

// OperationBuffer abstracts the buffer processor so use cases stay
// storage-agnostic. Projections handed to the buffer are retried until the
// primary store accepts them.
type OperationBuffer interface {
	BufferIdentity(ctx context.Context, identity *domain.Identity) error
	BufferTask(ctx context.Context, task *domain.Task) error
	BufferPool(ctx context.Context, pool *domain.DonationPool) error
	BufferNode(ctx context.Context, account *domain.NodeAccount) error
	BufferTransfer(ctx context.Context, transfer *repository.Transfer) error
}
