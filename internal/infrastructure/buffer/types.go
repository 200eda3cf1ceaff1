package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Projection entities that can be buffered while Postgres is unavailable.
const (
	EntityIdentity = "identity"
	EntityTask     = "task"
	EntityPool     = "pool"
	EntityNode     = "node"
	EntityTransfer = "transfer"
)

// Item represents a projection write that should be retried when the
// primary store is unavailable.
type Item struct {
	ID        string          `json:"id"`
	Ref       string          `json:"ref"` // natural key of the projected record
	Entity    string          `json:"entity"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
