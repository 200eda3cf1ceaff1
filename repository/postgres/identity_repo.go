package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed projection of identity records.
func NewIdentityRepository(pool *pgxpool.Pool) repository.IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) GetByAddress(ctx context.Context, address string) (*domain.Identity, error) {
	const query = `
	SELECT address, identity_id, reputation, tasks_completed, tasks_reported,
	       false_reports, is_verified, profile_ref, badges, registered_at, updated_at
	FROM identities
	WHERE address = $1
	`
	row := r.pool.QueryRow(ctx, query, address)
	return scanIdentity(row)
}

func (r *identityRepository) List(ctx context.Context, limit, offset int) ([]domain.Identity, error) {
	const query = `
	SELECT address, identity_id, reputation, tasks_completed, tasks_reported,
	       false_reports, is_verified, profile_ref, badges, registered_at, updated_at
	FROM identities
	ORDER BY identity_id
	LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *identity)
	}
	return identities, rows.Err()
}

func (r *identityRepository) Upsert(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.Address == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO identities (address, identity_id, reputation, tasks_completed, tasks_reported,
	                        false_reports, is_verified, profile_ref, badges, registered_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (address) DO UPDATE SET
		reputation = EXCLUDED.reputation,
		tasks_completed = EXCLUDED.tasks_completed,
		tasks_reported = EXCLUDED.tasks_reported,
		false_reports = EXCLUDED.false_reports,
		is_verified = EXCLUDED.is_verified,
		profile_ref = EXCLUDED.profile_ref,
		badges = EXCLUDED.badges,
		updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		identity.Address,
		identity.IdentityID,
		int(identity.Reputation),
		identity.TasksCompleted,
		identity.TasksReported,
		identity.FalseReports,
		identity.IsVerified,
		identity.ProfileRef,
		marshalJSON(identity.Badges),
		identity.RegisteredAt,
		identity.UpdatedAt,
	)
	return err
}

func scanIdentity(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Identity, error) {
	var identity domain.Identity
	var (
		reputation int
		badges     []byte
	)

	if err := row.Scan(
		&identity.Address,
		&identity.IdentityID,
		&reputation,
		&identity.TasksCompleted,
		&identity.TasksReported,
		&identity.FalseReports,
		&identity.IsVerified,
		&identity.ProfileRef,
		&badges,
		&identity.RegisteredAt,
		&identity.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}

	identity.Reputation = domain.Reputation(reputation)
	identity.Badges = unmarshalBadges(badges)
	return &identity, nil
}
