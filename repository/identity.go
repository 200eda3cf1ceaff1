package repository

import (
	"context"

	"github.com/meshaid/backend/domain"
)

// IdentityRepository persists read projections of identity records. The
// authoritative copy lives in the core state; the projection feeds audit
// queries and survives restarts.
type IdentityRepository interface {
	GetByAddress(ctx context.Context, address string) (*domain.Identity, error)
	Upsert(ctx context.Context, identity *domain.Identity) error
	List(ctx context.Context, limit, offset int) ([]domain.Identity, error)
}
