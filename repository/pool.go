package repository

import (
	"context"

	"github.com/meshaid/backend/domain"
)

// PoolRepository persists read projections of donation pools.
type PoolRepository interface {
	GetByTaskID(ctx context.Context, taskID string) (*domain.DonationPool, error)
	Upsert(ctx context.Context, pool *domain.DonationPool) error
}
