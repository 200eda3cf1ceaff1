package core

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/meshaid/backend/domain"
)

// ActivityReport is one node's batched contribution tuple as delivered by a
// relay/uptime reporter.
type ActivityReport struct {
	Node          string   `json:"node"`
	Packets       int64    `json:"packets"`
	UptimeMinutes int64    `json:"uptime_minutes"`
	MessageIDs    []string `json:"message_ids,omitempty"`
}

// RecordRelay credits a node for relayed packets at the fixed per-packet
// rate, clamped to the remaining mintable headroom.
func (s *State) RecordRelay(caller, node string, packets int64) (*domain.NodeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleReporter) {
		return nil, domain.ErrNotAuthorized
	}
	if node == "" || packets <= 0 {
		return nil, domain.ErrInvalidPayload
	}

	account := s.nodeLocked(node)
	account.PacketsRelayed += packets
	s.mintLocked(account, packets*domain.RewardPerPacket)

	return copyNode(account), nil
}

// RecordUptime credits a node for reported uptime. Only full 60-minute
// blocks are rewarded; leftover minutes carry over to the next report.
func (s *State) RecordUptime(caller, node string, minutes int64) (*domain.NodeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleReporter) {
		return nil, domain.ErrNotAuthorized
	}
	if node == "" || minutes <= 0 {
		return nil, domain.ErrInvalidPayload
	}

	account := s.nodeLocked(node)
	blocksBefore := account.UptimeMinutes / domain.UptimeBlockMinutes
	account.UptimeMinutes += minutes
	newBlocks := account.UptimeMinutes/domain.UptimeBlockMinutes - blocksBefore
	s.mintLocked(account, newBlocks*domain.RewardPerUptimeBlock)

	return copyNode(account), nil
}

// RecordDelivery credits a node for one delivered message. Message ids are
// deduplicated globally so a delivery is rewarded at most once.
func (s *State) RecordDelivery(caller, node, messageID string) (*domain.NodeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleReporter) {
		return nil, domain.ErrNotAuthorized
	}
	if node == "" || messageID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if s.delivered[messageID] {
		return nil, domain.ErrDuplicateDelivery
	}

	s.delivered[messageID] = true
	account := s.nodeLocked(node)
	account.MessagesDelivered++
	s.mintLocked(account, domain.RewardPerDelivery)

	return copyNode(account), nil
}

// RecordBatch applies a set of activity reports under one commit. Duplicate
// message ids are skipped and aggregated into the returned error; the rest
// of the batch still commits.
func (s *State) RecordBatch(caller string, reports []ActivityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAuthority(caller, domain.RoleReporter) {
		return domain.ErrNotAuthorized
	}

	var failures *multierror.Error
	for _, report := range reports {
		if report.Node == "" {
			failures = multierror.Append(failures, domain.ErrInvalidPayload)
			continue
		}
		account := s.nodeLocked(report.Node)
		if report.Packets > 0 {
			account.PacketsRelayed += report.Packets
			s.mintLocked(account, report.Packets*domain.RewardPerPacket)
		}
		if report.UptimeMinutes > 0 {
			blocksBefore := account.UptimeMinutes / domain.UptimeBlockMinutes
			account.UptimeMinutes += report.UptimeMinutes
			newBlocks := account.UptimeMinutes/domain.UptimeBlockMinutes - blocksBefore
			s.mintLocked(account, newBlocks*domain.RewardPerUptimeBlock)
		}
		for _, messageID := range report.MessageIDs {
			if s.delivered[messageID] {
				failures = multierror.Append(failures, domain.ErrDuplicateDelivery)
				continue
			}
			s.delivered[messageID] = true
			account.MessagesDelivered++
			s.mintLocked(account, domain.RewardPerDelivery)
		}
	}
	return failures.ErrorOrNil()
}

// NodeStats returns a snapshot of a node's contribution account.
func (s *State) NodeStats(node string) (*domain.NodeAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.nodes[node]
	if !ok {
		return nil, domain.ErrNodeNotFound
	}
	return copyNode(account), nil
}

// ActiveSince reports whether the node showed activity inside the window.
func (s *State) ActiveSince(node string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.nodes[node]
	if !ok {
		return false, domain.ErrNodeNotFound
	}
	return account.ActiveSince(s.now(), window), nil
}

// RemainingMintable returns the headroom left under the global supply cap.
func (s *State) RemainingMintable() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.MaxRewardSupply - s.minted
}

// TotalMinted returns the lifetime credit issuance.
func (s *State) TotalMinted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minted
}

func (s *State) nodeLocked(node string) *domain.NodeAccount {
	account, ok := s.nodes[node]
	if !ok {
		account = &domain.NodeAccount{Address: node}
		s.nodes[node] = account
	}
	account.LastActivity = s.now()
	return account
}

// mintLocked issues credits truncated to the remaining headroom, so the
// supply never exceeds the cap and never goes negative.
func (s *State) mintLocked(account *domain.NodeAccount, amount int64) {
	if amount <= 0 {
		return
	}
	if headroom := domain.MaxRewardSupply - s.minted; amount > headroom {
		amount = headroom
	}
	if amount <= 0 {
		return
	}
	s.minted += amount
	account.RewardBalance += amount
	account.TotalEarned += amount
}

func copyNode(account *domain.NodeAccount) *domain.NodeAccount {
	cp := *account
	return &cp
}
