package repository

import (
	"context"

	"github.com/meshaid/backend/domain"
)

// NodeRepository persists read projections of mesh contribution accounts.
type NodeRepository interface {
	GetByAddress(ctx context.Context, address string) (*domain.NodeAccount, error)
	Upsert(ctx context.Context, account *domain.NodeAccount) error
}
