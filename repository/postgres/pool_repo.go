package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type poolRepository struct {
	pool *pgxpool.Pool
}

// NewPoolRepository returns a Postgres-backed projection of donation pools.
func NewPoolRepository(pool *pgxpool.Pool) repository.PoolRepository {
	return &poolRepository{pool: pool}
}

func (r *poolRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.DonationPool, error) {
	const query = `
	SELECT task_id, total_amount, claimed_amount, required_signatures, signature_count,
	       contributions, gps_verified, active, created_at, updated_at
	FROM donation_pools
	WHERE task_id = $1
	`
	var pool domain.DonationPool
	var contributions []byte

	if err := r.pool.QueryRow(ctx, query, taskID).Scan(
		&pool.TaskID,
		&pool.TotalAmount,
		&pool.ClaimedAmount,
		&pool.RequiredSignatures,
		&pool.SignatureCount,
		&contributions,
		&pool.GPSVerified,
		&pool.Active,
		&pool.CreatedAt,
		&pool.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPoolNotFound
		}
		return nil, err
	}

	pool.Contributions = unmarshalContributions(contributions)
	return &pool, nil
}

func (r *poolRepository) Upsert(ctx context.Context, pool *domain.DonationPool) error {
	if pool == nil || pool.TaskID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO donation_pools (task_id, total_amount, claimed_amount, required_signatures,
	                            signature_count, contributions, gps_verified, active,
	                            created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (task_id) DO UPDATE SET
		total_amount = EXCLUDED.total_amount,
		claimed_amount = EXCLUDED.claimed_amount,
		signature_count = EXCLUDED.signature_count,
		contributions = EXCLUDED.contributions,
		gps_verified = EXCLUDED.gps_verified,
		active = EXCLUDED.active,
		updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		pool.TaskID,
		pool.TotalAmount,
		pool.ClaimedAmount,
		pool.RequiredSignatures,
		pool.SignatureCount,
		marshalJSON(pool.Contributions),
		pool.GPSVerified,
		pool.Active,
		pool.CreatedAt,
		pool.UpdatedAt,
	)
	return err
}
