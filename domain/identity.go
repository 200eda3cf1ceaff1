package domain

import "time"

// Reputation bounds and trust bands.
const (
	ReputationMin     = 0
	ReputationMax     = 1000
	ReputationInitial = 100
)

// Reputation is a score clamped to [ReputationMin, ReputationMax].
// All arithmetic saturates, so the bound is structural rather than
// re-checked at every call site.
type Reputation int

// Apply adds delta and clamps the result.
func (r Reputation) Apply(delta int) Reputation {
	v := int(r) + delta
	if v < ReputationMin {
		return ReputationMin
	}
	if v > ReputationMax {
		return ReputationMax
	}
	return Reputation(v)
}

// TrustLevel maps a reputation score onto the discrete 0-4 tiers.
func (r Reputation) TrustLevel() int {
	switch {
	case r >= 800:
		return 4
	case r >= 500:
		return 3
	case r >= 200:
		return 2
	case r >= 50:
		return 1
	default:
		return 0
	}
}

// Achievement badges, each awarded at most once.
const (
	BadgeFirstResponse   = "first_response"
	BadgeVeteranResponse = "veteran_responder"
	BadgeTrustedReporter = "trusted_reporter"
)

// Milestones that trigger badge awards.
const (
	MilestoneFirstCompletion   = 1
	MilestoneVeteranCompletion = 10
	MilestoneTrustedReports    = 50
)

// Capability roles recorded in the authorization table.
type Role string

const (
	RoleAdmin    Role = "admin"    // administrative grants, identity verification
	RoleUpdater  Role = "updater"  // reputation and counter mutations
	RoleReporter Role = "reporter" // mesh activity reporting
	RoleGateway  Role = "gateway"  // confirmed-payment deposits
)

// Identity is the non-transferable record held for each participant.
type Identity struct {
	Address        string          `json:"address"`
	IdentityID     uint64          `json:"identity_id"`
	Reputation     Reputation      `json:"reputation"`
	TasksCompleted int             `json:"tasks_completed"`
	TasksReported  int             `json:"tasks_reported"`
	FalseReports   int             `json:"false_reports"`
	IsVerified     bool            `json:"is_verified"`
	ProfileRef     string          `json:"profile_ref,omitempty"`
	Badges         map[string]bool `json:"badges,omitempty"`
	RegisteredAt   time.Time       `json:"registered_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TrustLevel derives the identity's discrete tier.
func (i *Identity) TrustLevel() int {
	if i == nil {
		return 0
	}
	return i.Reputation.TrustLevel()
}

// HasBadge reports whether the badge was already awarded.
func (i *Identity) HasBadge(badge string) bool {
	return i != nil && i.Badges[badge]
}
