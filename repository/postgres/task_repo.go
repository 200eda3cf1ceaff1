package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed projection of help requests.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT id, creator, volunteer, lat_micro, lon_micro, category, priority, content_ref,
	       status, verification_score, dispute_score, verifier_count, disputer_count,
	       created_at, expires_at, updated_at
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT id, creator, volunteer, lat_micro, lon_micro, category, priority, content_ref,
	       status, verification_score, dispute_score, verifier_count, disputer_count,
	       created_at, expires_at, updated_at
	FROM tasks
	WHERE ($1 = '' OR creator = $1)
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR category = $3)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Creator, filter.Status, filter.Category, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Upsert(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, creator, volunteer, lat_micro, lon_micro, category, priority,
	                   content_ref, status, verification_score, dispute_score,
	                   verifier_count, disputer_count, created_at, expires_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		volunteer = EXCLUDED.volunteer,
		status = EXCLUDED.status,
		verification_score = EXCLUDED.verification_score,
		dispute_score = EXCLUDED.dispute_score,
		verifier_count = EXCLUDED.verifier_count,
		disputer_count = EXCLUDED.disputer_count,
		updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Creator,
		task.Volunteer,
		task.Location.LatMicro,
		task.Location.LonMicro,
		task.Category,
		task.Priority,
		task.ContentRef,
		string(task.Status),
		task.VerificationScore,
		task.DisputeScore,
		task.VerifierCount,
		task.DisputerCount,
		task.CreatedAt,
		task.ExpiresAt,
		task.UpdatedAt,
	)
	return err
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var status string

	if err := row.Scan(
		&task.ID,
		&task.Creator,
		&task.Volunteer,
		&task.Location.LatMicro,
		&task.Location.LonMicro,
		&task.Category,
		&task.Priority,
		&task.ContentRef,
		&status,
		&task.VerificationScore,
		&task.DisputeScore,
		&task.VerifierCount,
		&task.DisputerCount,
		&task.CreatedAt,
		&task.ExpiresAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	return &task, nil
}
