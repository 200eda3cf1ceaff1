package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type nodeRepository struct {
	pool *pgxpool.Pool
}

// NewNodeRepository returns a Postgres-backed projection of mesh accounts.
func NewNodeRepository(pool *pgxpool.Pool) repository.NodeRepository {
	return &nodeRepository{pool: pool}
}

func (r *nodeRepository) GetByAddress(ctx context.Context, address string) (*domain.NodeAccount, error) {
	const query = `
	SELECT address, packets_relayed, uptime_minutes, messages_delivered,
	       reward_balance, total_earned, last_activity
	FROM node_accounts
	WHERE address = $1
	`
	var account domain.NodeAccount
	if err := r.pool.QueryRow(ctx, query, address).Scan(
		&account.Address,
		&account.PacketsRelayed,
		&account.UptimeMinutes,
		&account.MessagesDelivered,
		&account.RewardBalance,
		&account.TotalEarned,
		&account.LastActivity,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNodeNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *nodeRepository) Upsert(ctx context.Context, account *domain.NodeAccount) error {
	if account == nil || account.Address == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO node_accounts (address, packets_relayed, uptime_minutes, messages_delivered,
	                           reward_balance, total_earned, last_activity)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (address) DO UPDATE SET
		packets_relayed = EXCLUDED.packets_relayed,
		uptime_minutes = EXCLUDED.uptime_minutes,
		messages_delivered = EXCLUDED.messages_delivered,
		reward_balance = EXCLUDED.reward_balance,
		total_earned = EXCLUDED.total_earned,
		last_activity = EXCLUDED.last_activity
	`
	_, err := r.pool.Exec(ctx, query,
		account.Address,
		account.PacketsRelayed,
		account.UptimeMinutes,
		account.MessagesDelivered,
		account.RewardBalance,
		account.TotalEarned,
		account.LastActivity,
	)
	return err
}
