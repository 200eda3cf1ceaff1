package domain

import "time"

// DefaultRequiredSignatures is the release quorum applied to new pools.
const DefaultRequiredSignatures = 3

// LocationToleranceMicroDeg bounds the volunteer's proximity proof on each
// axis (about 1.1 km at the equator).
const LocationToleranceMicroDeg = 10_000

// DonationPool escrows donations for one task until release conditions hold.
type DonationPool struct {
	TaskID             string           `json:"task_id"`
	TotalAmount        int64            `json:"total_amount"`
	ClaimedAmount      int64            `json:"claimed_amount"`
	RequiredSignatures int              `json:"required_signatures"`
	SignatureCount     int              `json:"signature_count"`
	Contributions      map[string]int64 `json:"contributions"`
	GPSVerified        bool             `json:"gps_verified"`
	Active             bool             `json:"active"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Remainder returns the unreleased balance.
func (p *DonationPool) Remainder() int64 {
	if p == nil {
		return 0
	}
	return p.TotalAmount - p.ClaimedAmount
}

// PoolStatus is the read projection exposed for a donation pool.
type PoolStatus struct {
	TaskID             string `json:"task_id"`
	TotalAmount        int64  `json:"total_amount"`
	ClaimedAmount      int64  `json:"claimed_amount"`
	SignatureCount     int    `json:"signature_count"`
	RequiredSignatures int    `json:"required_signatures"`
	DonorCount         int    `json:"donor_count"`
	GPSVerified        bool   `json:"gps_verified"`
	Active             bool   `json:"active"`
	CanRelease         bool   `json:"can_release"`
}
