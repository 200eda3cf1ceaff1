package core

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/meshaid/backend/domain"
)

const minSignerLevel = 3

// Deposit credits a participant's spendable balance. Restricted to the
// payment-gateway capability: the external payment collaborator reports
// confirmed payments through this entry point.
func (s *State) Deposit(caller, target string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleGateway) {
		return 0, domain.ErrNotAuthorized
	}
	if target == "" || amount <= 0 {
		return 0, domain.ErrInvalidPayload
	}

	s.balances[target] += amount
	return s.balances[target], nil
}

// Balance returns the participant's spendable balance.
func (s *State) Balance(address string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[address]
}

// Donate moves funds from the donor's balance into the task's pool. The
// pool is created lazily on the first donation.
func (s *State) Donate(caller, taskID string, amount int64) (*domain.DonationPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return nil, domain.ErrInvalidPayload
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskVerified && task.Status != domain.TaskInProgress {
		return nil, domain.ErrInvalidState
	}
	if s.balances[caller] < amount {
		return nil, domain.ErrInsufficientFunds
	}

	pool, ok := s.pools[taskID]
	if !ok {
		now := s.now()
		pool = &domain.DonationPool{
			TaskID:             taskID,
			RequiredSignatures: domain.DefaultRequiredSignatures,
			Contributions:      make(map[string]int64),
			Active:             true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		s.pools[taskID] = pool
	}

	s.balances[caller] -= amount
	pool.TotalAmount += amount
	pool.Contributions[caller] += amount
	pool.UpdatedAt = s.now()

	return copyPool(pool), nil
}

// SignRelease records one trusted co-signature toward the release quorum.
func (s *State) SignRelease(caller, taskID string) (*domain.DonationPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[taskID]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	if !pool.Active {
		return nil, domain.ErrInvalidState
	}
	if s.signers[actKey{taskID, caller}] {
		return nil, domain.ErrAlreadySigned
	}
	if s.identities[caller].TrustLevel() < minSignerLevel {
		return nil, domain.ErrNotAuthorized
	}

	s.signers[actKey{taskID, caller}] = true
	pool.SignatureCount++
	pool.UpdatedAt = s.now()

	return copyPool(pool), nil
}

// SubmitLocationProof marks the pool gps-verified when the assigned
// volunteer attests a location within tolerance of the task's coordinates.
func (s *State) SubmitLocationProof(caller, taskID string, location domain.GeoPoint) (*domain.DonationPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[taskID]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	if !pool.Active {
		return nil, domain.ErrInvalidState
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Volunteer == "" || caller != task.Volunteer {
		return nil, domain.ErrNotAuthorized
	}
	if !task.Location.WithinTolerance(location, domain.LocationToleranceMicroDeg) {
		return nil, domain.ErrOutOfRange
	}

	pool.GPSVerified = true
	pool.UpdatedAt = s.now()

	return copyPool(pool), nil
}

// ReleaseFunds transfers the unclaimed remainder to the task creator once
// the signature quorum, the location proof, and task completion all hold.
// The zero-remainder guard makes release exactly-once per balance.
func (s *State) ReleaseFunds(taskID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[taskID]
	if !ok {
		return 0, domain.ErrPoolNotFound
	}
	if !pool.Active {
		return 0, domain.ErrInvalidState
	}
	if pool.SignatureCount < pool.RequiredSignatures {
		return 0, domain.ErrNotAuthorized
	}
	if !pool.GPSVerified {
		return 0, domain.ErrInvalidState
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return 0, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskCompleted {
		return 0, domain.ErrInvalidState
	}

	remainder := pool.Remainder()
	if remainder <= 0 {
		return 0, domain.ErrNothingToRelease
	}

	if err := s.payout(task.Creator, remainder, "release:"+taskID); err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "release payout failed", err)
	}
	pool.ClaimedAmount = pool.TotalAmount
	pool.UpdatedAt = s.now()

	return remainder, nil
}

// RefundDonations returns each donor's recorded contribution after the task
// was cancelled or expired. The fan-out is best-effort: a failing payout is
// logged and skipped, its contribution stays recorded, and the pool only
// deactivates once every contribution was returned. The aggregated error
// reports the donors that remain outstanding.
func (s *State) RefundDonations(taskID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return 0, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskCancelled && task.Status != domain.TaskExpired {
		return 0, domain.ErrInvalidState
	}
	pool, ok := s.pools[taskID]
	if !ok {
		return 0, domain.ErrPoolNotFound
	}
	if !pool.Active {
		return 0, domain.ErrInvalidState
	}

	donors := make([]string, 0, len(pool.Contributions))
	for donor := range pool.Contributions {
		donors = append(donors, donor)
	}
	sort.Strings(donors)

	var refunded int64
	var failures *multierror.Error
	for _, donor := range donors {
		amount := pool.Contributions[donor]
		if amount <= 0 {
			continue
		}
		if err := s.payout(donor, amount, "refund:"+taskID); err != nil {
			s.logger.Warn("refund payout failed",
				zap.String("task_id", taskID),
				zap.String("donor", donor),
				zap.Int64("amount", amount),
				zap.Error(err))
			failures = multierror.Append(failures, err)
			continue
		}
		pool.Contributions[donor] = 0
		refunded += amount
	}

	if failures == nil {
		pool.Active = false
	}
	pool.UpdatedAt = s.now()

	return refunded, failures.ErrorOrNil()
}

// PoolStatus returns the pool projection, including whether every release
// condition currently holds.
func (s *State) PoolStatus(taskID string) (*domain.PoolStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[taskID]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	task := s.tasks[taskID]

	canRelease := pool.Active &&
		pool.SignatureCount >= pool.RequiredSignatures &&
		pool.GPSVerified &&
		task != nil && task.Status == domain.TaskCompleted &&
		pool.Remainder() > 0

	return &domain.PoolStatus{
		TaskID:             pool.TaskID,
		TotalAmount:        pool.TotalAmount,
		ClaimedAmount:      pool.ClaimedAmount,
		SignatureCount:     pool.SignatureCount,
		RequiredSignatures: pool.RequiredSignatures,
		DonorCount:         len(pool.Contributions),
		GPSVerified:        pool.GPSVerified,
		Active:             pool.Active,
		CanRelease:         canRelease,
	}, nil
}

// GetPool returns a snapshot of the pool record.
func (s *State) GetPool(taskID string) (*domain.DonationPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[taskID]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	return copyPool(pool), nil
}

func copyPool(pool *domain.DonationPool) *domain.DonationPool {
	cp := *pool
	cp.Contributions = make(map[string]int64, len(pool.Contributions))
	for donor, amount := range pool.Contributions {
		cp.Contributions[donor] = amount
	}
	return &cp
}
