package repository

import (
	"context"
	"time"
)

// Transfer is one committed escrow movement (deposit, release, or refund),
// recorded for audit.
type Transfer struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferRepository appends escrow movements to the audit trail.
type TransferRepository interface {
	Record(ctx context.Context, transfer *Transfer) error
	ListByTask(ctx context.Context, taskID string, limit int) ([]Transfer, error)
}
