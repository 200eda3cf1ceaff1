package core

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meshaid/backend/domain"
)

// PayoutFunc delivers escrowed funds to a participant. The default
// implementation credits the internal balance ledger; production wiring may
// hand the transfer to an external wallet collaborator, whose failure aborts
// the individual payout.
type PayoutFunc func(to string, amount int64, reason string) error

// actKey identifies a single participant action against a single task, so
// the acted-once invariants reduce to one membership test.
type actKey struct {
	taskID  string
	address string
}

// State is the process-wide authoritative state for the four components:
// identity registry, task engine, donation escrow, and incentive ledger.
// One mutex serializes every mutating operation; each public method is an
// atomic check-then-write unit that either commits fully or returns a typed
// domain error with no mutation.
type State struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
	payout PayoutFunc

	// registry
	identities     map[string]*domain.Identity
	nextIdentityID uint64
	roles          map[string]map[domain.Role]bool

	// task engine
	tasks     map[string]*domain.Task
	verifiers map[actKey]bool
	disputers map[actKey]bool

	// escrow
	balances map[string]int64
	pools    map[string]*domain.DonationPool
	signers  map[actKey]bool

	// incentive ledger
	nodes     map[string]*domain.NodeAccount
	delivered map[string]bool
	minted    int64
}

// Option customizes State construction.
type Option func(*State)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger for escrow fan-out reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPayout overrides the payout sink used by release and refund.
func WithPayout(payout PayoutFunc) Option {
	return func(s *State) {
		if payout != nil {
			s.payout = payout
		}
	}
}

// WithAdmins seeds the capability table with administrative grants.
func WithAdmins(addresses ...string) Option {
	return func(s *State) {
		for _, addr := range addresses {
			s.grantLocked(addr, domain.RoleAdmin)
		}
	}
}

// WithReporters seeds the capability table with mesh-reporter grants.
func WithReporters(addresses ...string) Option {
	return func(s *State) {
		for _, addr := range addresses {
			s.grantLocked(addr, domain.RoleReporter)
		}
	}
}

// WithGateways seeds the capability table with payment-gateway grants.
func WithGateways(addresses ...string) Option {
	return func(s *State) {
		for _, addr := range addresses {
			s.grantLocked(addr, domain.RoleGateway)
		}
	}
}

// New builds an empty authoritative state.
func New(opts ...Option) *State {
	s := &State{
		now:        time.Now,
		logger:     zap.NewNop(),
		identities: make(map[string]*domain.Identity),
		roles:      make(map[string]map[domain.Role]bool),
		tasks:      make(map[string]*domain.Task),
		verifiers:  make(map[actKey]bool),
		disputers:  make(map[actKey]bool),
		balances:   make(map[string]int64),
		pools:      make(map[string]*domain.DonationPool),
		signers:    make(map[actKey]bool),
		nodes:      make(map[string]*domain.NodeAccount),
		delivered:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.payout == nil {
		s.payout = s.creditBalance
	}
	return s
}

func (s *State) creditBalance(to string, amount int64, _ string) error {
	// Internal ledger credit; caller holds the state lock.
	s.balances[to] += amount
	return nil
}

func (s *State) grantLocked(addr string, role domain.Role) {
	if addr == "" {
		return
	}
	if s.roles[addr] == nil {
		s.roles[addr] = make(map[domain.Role]bool)
	}
	s.roles[addr][role] = true
}

func (s *State) hasRole(addr string, role domain.Role) bool {
	return s.roles[addr][role]
}

// hasAuthority reports whether addr holds role or the admin grant.
func (s *State) hasAuthority(addr string, role domain.Role) bool {
	return s.hasRole(addr, role) || s.hasRole(addr, domain.RoleAdmin)
}
