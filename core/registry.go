package core

import (
	"github.com/meshaid/backend/domain"
)

// Reputation deltas applied by the registry.
const (
	falseReportPenalty = 100
)

// Register issues the caller's non-transferable identity. A second call for
// the same address fails; identity ids come from a single gapless counter.
func (s *State) Register(caller, profileRef string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[caller]; ok {
		return nil, domain.ErrAlreadyRegistered
	}

	s.nextIdentityID++
	now := s.now()
	identity := &domain.Identity{
		Address:      caller,
		IdentityID:   s.nextIdentityID,
		Reputation:   domain.ReputationInitial,
		ProfileRef:   profileRef,
		Badges:       make(map[string]bool),
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	s.identities[caller] = identity

	return copyIdentity(identity), nil
}

// GetIdentity returns a snapshot of the participant's identity record.
func (s *State) GetIdentity(address string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[address]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return copyIdentity(identity), nil
}

// IsRegistered reports whether the address holds an identity.
func (s *State) IsRegistered(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.identities[address]
	return ok
}

// TrustLevel resolves the participant's discrete trust tier. Unregistered
// addresses resolve to level 0.
func (s *State) TrustLevel(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identities[address].TrustLevel()
}

// UpdateReputation applies a saturating delta to the target's score on
// behalf of an authorized updater and returns the new score.
func (s *State) UpdateReputation(caller, target string, delta int) (domain.Reputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleUpdater) {
		return 0, domain.ErrNotAuthorized
	}
	identity, ok := s.identities[target]
	if !ok {
		return 0, domain.ErrIdentityNotFound
	}

	s.applyReputationLocked(identity, delta)
	return identity.Reputation, nil
}

// IncrementCompleted bumps the target's completion counter, awarding
// milestone badges at most once.
func (s *State) IncrementCompleted(caller, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleUpdater) {
		return domain.ErrNotAuthorized
	}
	identity, ok := s.identities[target]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	s.incrementCompletedLocked(identity)
	return nil
}

// IncrementReported bumps the target's reported-task counter.
func (s *State) IncrementReported(caller, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleUpdater) {
		return domain.ErrNotAuthorized
	}
	identity, ok := s.identities[target]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	s.incrementReportedLocked(identity)
	return nil
}

// RecordFalseReport increments the target's false-report counter and applies
// the fixed penalty through the same saturating rule as every other delta.
func (s *State) RecordFalseReport(caller, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleUpdater) {
		return domain.ErrNotAuthorized
	}
	identity, ok := s.identities[target]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	s.recordFalseReportLocked(identity)
	return nil
}

// VerifyIdentity sets the manual-authority verification flag. Idempotent.
func (s *State) VerifyIdentity(caller, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRole(caller, domain.RoleAdmin) {
		return domain.ErrNotAuthorized
	}
	identity, ok := s.identities[target]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	if !identity.IsVerified {
		identity.IsVerified = true
		identity.UpdatedAt = s.now()
	}
	return nil
}

// Grant adds a capability for target. Admin-only.
func (s *State) Grant(caller, target string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRole(caller, domain.RoleAdmin) {
		return domain.ErrNotAuthorized
	}
	s.grantLocked(target, role)
	return nil
}

// Revoke removes a capability from target. Admin-only.
func (s *State) Revoke(caller, target string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRole(caller, domain.RoleAdmin) {
		return domain.ErrNotAuthorized
	}
	if grants, ok := s.roles[target]; ok {
		delete(grants, role)
	}
	return nil
}

// HasRole reports whether the address currently holds the capability.
func (s *State) HasRole(address string, role domain.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasRole(address, role)
}

// applyReputationLocked saturates the delta into [0, 1000].
func (s *State) applyReputationLocked(identity *domain.Identity, delta int) {
	identity.Reputation = identity.Reputation.Apply(delta)
	identity.UpdatedAt = s.now()
}

func (s *State) incrementCompletedLocked(identity *domain.Identity) {
	identity.TasksCompleted++
	identity.UpdatedAt = s.now()

	switch identity.TasksCompleted {
	case domain.MilestoneFirstCompletion:
		s.awardBadgeLocked(identity, domain.BadgeFirstResponse)
	case domain.MilestoneVeteranCompletion:
		s.awardBadgeLocked(identity, domain.BadgeVeteranResponse)
	}
}

func (s *State) incrementReportedLocked(identity *domain.Identity) {
	identity.TasksReported++
	identity.UpdatedAt = s.now()

	if identity.TasksReported == domain.MilestoneTrustedReports {
		s.awardBadgeLocked(identity, domain.BadgeTrustedReporter)
	}
}

func (s *State) recordFalseReportLocked(identity *domain.Identity) {
	identity.FalseReports++
	s.applyReputationLocked(identity, -falseReportPenalty)
}

// awardBadgeLocked grants a badge at most once.
func (s *State) awardBadgeLocked(identity *domain.Identity, badge string) {
	if identity.Badges[badge] {
		return
	}
	identity.Badges[badge] = true
}

func copyIdentity(identity *domain.Identity) *domain.Identity {
	cp := *identity
	cp.Badges = make(map[string]bool, len(identity.Badges))
	for badge := range identity.Badges {
		cp.Badges[badge] = true
	}
	return &cp
}
