package domain

import "time"

// TaskStatus enumerates the help-request lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskVerified   TaskStatus = "VERIFIED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskDisputed   TaskStatus = "DISPUTED"
	TaskCancelled  TaskStatus = "CANCELLED"
	TaskExpired    TaskStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskCancelled, TaskExpired:
		return true
	}
	return false
}

// Priority tags for help requests.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Help-request categories.
const (
	CategoryMedical   = "medical"
	CategoryRescue    = "rescue"
	CategoryShelter   = "shelter"
	CategoryFoodWater = "food_water"
	CategoryTransport = "transport"
	CategoryInfo      = "info"
)

// TTL bounds for a help request.
const (
	TaskTTLMin = 5 * time.Minute
	TaskTTLMax = 7 * 24 * time.Hour
)

// GeoPoint is a fixed-precision coordinate pair in micro-degrees
// (degrees scaled by 1e6).
type GeoPoint struct {
	LatMicro int64 `json:"lat_micro"`
	LonMicro int64 `json:"lon_micro"`
}

// WithinTolerance reports whether other lies within tol micro-degrees of p
// on both axes.
func (p GeoPoint) WithinTolerance(other GeoPoint, tol int64) bool {
	return absInt64(p.LatMicro-other.LatMicro) <= tol &&
		absInt64(p.LonMicro-other.LonMicro) <= tol
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Task is a help request moving through the verification lifecycle.
type Task struct {
	ID                string     `json:"id"`
	Creator           string     `json:"creator"`
	Volunteer         string     `json:"volunteer,omitempty"`
	Location          GeoPoint   `json:"location"`
	Category          string     `json:"category"`
	Priority          string     `json:"priority"`
	ContentRef        string     `json:"content_ref,omitempty"`
	Status            TaskStatus `json:"status"`
	VerificationScore int        `json:"verification_score"`
	DisputeScore      int        `json:"dispute_score"`
	VerifierCount     int        `json:"verifier_count"`
	DisputerCount     int        `json:"disputer_count"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsExpired reports whether the TTL elapsed relative to reference.
func (t *Task) IsExpired(reference time.Time) bool {
	return t != nil && !reference.Before(t.ExpiresAt)
}

// TrustInfo is the read projection exposed for a task's verification state.
type TrustInfo struct {
	Status            TaskStatus `json:"status"`
	VerificationScore int        `json:"verification_score"`
	DisputeScore      int        `json:"dispute_score"`
	VerifierCount     int        `json:"verifier_count"`
	IsVerified        bool       `json:"is_verified"`
}
