package repository

import (
	"context"

	"github.com/meshaid/backend/domain"
)

type TaskFilter struct {
	Creator  string
	Status   string
	Category string
	Limit    int
	Offset   int
}

// TaskRepository persists read projections of help-request records.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Upsert(ctx context.Context, task *domain.Task) error
}
