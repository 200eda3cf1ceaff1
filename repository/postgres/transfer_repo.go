package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type transferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository returns a Postgres-backed escrow audit trail.
func NewTransferRepository(pool *pgxpool.Pool) repository.TransferRepository {
	return &transferRepository{pool: pool}
}

func (r *transferRepository) Record(ctx context.Context, transfer *repository.Transfer) error {
	if transfer == nil || transfer.To == "" {
		return domain.ErrInvalidPayload
	}
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO transfers (id, task_id, from_address, to_address, amount, kind)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query,
		transfer.ID,
		transfer.TaskID,
		transfer.From,
		transfer.To,
		transfer.Amount,
		transfer.Kind,
	).Scan(&transfer.CreatedAt)
}

func (r *transferRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]repository.Transfer, error) {
	const query = `
	SELECT id, task_id, from_address, to_address, amount, kind, created_at
	FROM transfers
	WHERE task_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, taskID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []repository.Transfer
	for rows.Next() {
		var transfer repository.Transfer
		if err := rows.Scan(
			&transfer.ID,
			&transfer.TaskID,
			&transfer.From,
			&transfer.To,
			&transfer.Amount,
			&transfer.Kind,
			&transfer.CreatedAt,
		); err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}
