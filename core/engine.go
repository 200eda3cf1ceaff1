package core

import (
	"sort"
	"time"

	"github.com/meshaid/backend/domain"
)

// Task engine thresholds and rewards.
const (
	verificationThreshold = 10
	minVerifierLevel      = 2
	minCancelLevel        = 3

	verifierReward   = 5
	completionReward = 50
	criticalBonus    = 50
	honestyReward    = 10
)

// CreateTaskInput carries the caller-supplied task attributes.
type CreateTaskInput struct {
	ID         string
	Location   domain.GeoPoint
	Category   string
	Priority   string
	ContentRef string
	TTL        time.Duration
}

// CreateTask registers a new help request at PENDING and bumps the
// creator's reported-task counter.
func (s *State) CreateTask(caller string, in CreateTaskInput) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if in.TTL < domain.TaskTTLMin || in.TTL > domain.TaskTTLMax {
		return nil, domain.ErrInvalidTTL
	}
	creator, ok := s.identities[caller]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	if _, exists := s.tasks[in.ID]; exists {
		return nil, domain.ErrTaskExists
	}

	now := s.now()
	task := &domain.Task{
		ID:         in.ID,
		Creator:    caller,
		Location:   in.Location,
		Category:   in.Category,
		Priority:   in.Priority,
		ContentRef: in.ContentRef,
		Status:     domain.TaskPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(in.TTL),
		UpdatedAt:  now,
	}
	s.tasks[in.ID] = task
	s.incrementReportedLocked(creator)

	return copyTask(task), nil
}

// VerifyTask attests the task as real, weighting the attestation by the
// caller's trust level. Crossing the threshold advances PENDING to VERIFIED
// exactly once; the transition never reverts when scores change later.
func (s *State) VerifyTask(caller, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskPending {
		return nil, domain.ErrInvalidState
	}
	if task.IsExpired(s.now()) {
		return nil, domain.ErrTaskExpired
	}
	if caller == task.Creator {
		return nil, domain.ErrNotAuthorized
	}
	if s.verifiers[actKey{taskID, caller}] {
		return nil, domain.ErrAlreadyVerified
	}
	verifier, ok := s.identities[caller]
	if !ok || verifier.TrustLevel() < minVerifierLevel {
		return nil, domain.ErrNotAuthorized
	}

	s.verifiers[actKey{taskID, caller}] = true
	task.VerificationScore += verifier.TrustLevel()
	task.VerifierCount++
	task.UpdatedAt = s.now()
	s.applyReputationLocked(verifier, verifierReward)

	if task.VerificationScore >= verificationThreshold {
		task.Status = domain.TaskVerified
	}

	return copyTask(task), nil
}

// DisputeTask attests the task as fake. Once the dispute weight exceeds the
// verification weight the task flips to DISPUTED.
func (s *State) DisputeTask(caller, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskPending && task.Status != domain.TaskVerified {
		return nil, domain.ErrInvalidState
	}
	if s.disputers[actKey{taskID, caller}] {
		return nil, domain.ErrAlreadyDisputed
	}
	disputer, ok := s.identities[caller]
	if !ok || disputer.TrustLevel() < minVerifierLevel {
		return nil, domain.ErrNotAuthorized
	}

	s.disputers[actKey{taskID, caller}] = true
	task.DisputeScore += disputer.TrustLevel()
	task.DisputerCount++
	task.UpdatedAt = s.now()

	if task.DisputeScore > task.VerificationScore {
		task.Status = domain.TaskDisputed
	}

	return copyTask(task), nil
}

// AcceptTask assigns the caller as the task's volunteer.
func (s *State) AcceptTask(caller, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Volunteer != "" {
		return nil, domain.ErrAlreadyAssigned
	}
	if task.Status != domain.TaskVerified {
		return nil, domain.ErrInvalidState
	}
	if task.IsExpired(s.now()) {
		return nil, domain.ErrTaskExpired
	}
	if _, registered := s.identities[caller]; !registered {
		return nil, domain.ErrIdentityNotFound
	}

	task.Volunteer = caller
	task.Status = domain.TaskInProgress
	task.UpdatedAt = s.now()

	return copyTask(task), nil
}

// CompleteTask is the creator's confirmation that help arrived. The
// volunteer earns the completion reward (plus the critical bonus on
// highest-priority tasks) and the creator a small honesty reward.
func (s *State) CompleteTask(caller, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskInProgress {
		return nil, domain.ErrInvalidState
	}
	if caller != task.Creator {
		return nil, domain.ErrNotAuthorized
	}

	task.Status = domain.TaskCompleted
	task.UpdatedAt = s.now()

	if volunteer, ok := s.identities[task.Volunteer]; ok {
		reward := completionReward
		if task.Priority == domain.PriorityCritical {
			reward += criticalBonus
		}
		s.applyReputationLocked(volunteer, reward)
		s.incrementCompletedLocked(volunteer)
	}
	if creator, ok := s.identities[task.Creator]; ok {
		s.applyReputationLocked(creator, honestyReward)
	}

	return copyTask(task), nil
}

// CancelFalseTask cancels a disputed task and penalizes its creator.
// Restricted to trust level 3 and above.
func (s *State) CancelFalseTask(caller, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskDisputed {
		return nil, domain.ErrInvalidState
	}
	if s.identities[caller].TrustLevel() < minCancelLevel {
		return nil, domain.ErrNotAuthorized
	}

	task.Status = domain.TaskCancelled
	task.UpdatedAt = s.now()

	if creator, ok := s.identities[task.Creator]; ok {
		s.recordFalseReportLocked(creator)
	}

	return copyTask(task), nil
}

// ExpireTask moves an unresolved task to EXPIRED once its TTL elapsed.
// Expiry is a passive precondition: nothing expires without this call.
func (s *State) ExpireTask(taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskPending && task.Status != domain.TaskVerified {
		return nil, domain.ErrInvalidState
	}
	if !task.IsExpired(s.now()) {
		return nil, domain.ErrInvalidState
	}

	task.Status = domain.TaskExpired
	task.UpdatedAt = s.now()

	return copyTask(task), nil
}

// GetTask returns a snapshot of the task record.
func (s *State) GetTask(taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return copyTask(task), nil
}

// TaskExists reports whether the id is taken.
func (s *State) TaskExists(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[taskID]
	return ok
}

// TrustInfo returns the task's verification summary projection.
func (s *State) TrustInfo(taskID string) (*domain.TrustInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &domain.TrustInfo{
		Status:            task.Status,
		VerificationScore: task.VerificationScore,
		DisputeScore:      task.DisputeScore,
		VerifierCount:     task.VerifierCount,
		IsVerified:        task.Status != domain.TaskPending && task.Status != domain.TaskDisputed,
	}, nil
}

// ListTasks returns snapshots of tasks matching the status filter (all
// tasks when status is empty), ordered by creation time descending.
func (s *State) ListTasks(status domain.TaskStatus) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if status != "" && task.Status != status {
			continue
		}
		out = append(out, *copyTask(task))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ExpiryCandidates lists ids of open tasks whose TTL already elapsed. The
// sweeper turns each into an explicit ExpireTask call.
func (s *State) ExpiryCandidates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ids []string
	for id, task := range s.tasks {
		if task.Status != domain.TaskPending && task.Status != domain.TaskVerified {
			continue
		}
		if task.IsExpired(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func copyTask(task *domain.Task) *domain.Task {
	cp := *task
	return &cp
}
