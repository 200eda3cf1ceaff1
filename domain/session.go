package domain

import "time"

// Session represents a cached API session stored in Redis. The participant
// address is attributed by the external key-management collaborator; the
// core never holds key material.
type Session struct {
	ID        string            `json:"id"`
	Address   string            `json:"address"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}
