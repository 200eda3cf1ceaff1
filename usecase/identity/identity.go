package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
	"github.com/meshaid/backend/usecase"
)

// UseCase fronts the registry component of the core state. Mutations commit
// in memory first; the Postgres projection is written afterwards and buffered
// when the primary store is unreachable.
type UseCase struct {
	state      *core.State
	identities repository.IdentityRepository
	buffer     usecase.OperationBuffer
	logger     *zap.Logger
}

func New(state *core.State, identities repository.IdentityRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		state:      state,
		identities: identities,
		buffer:     buffer,
		logger:     logger,
	}
}

func (uc *UseCase) Register(ctx context.Context, caller, profileRef string) (*domain.Identity, error) {
	identity, err := uc.state.Register(caller, profileRef)
	if err != nil {
		return nil, err
	}
	uc.project(ctx, identity)
	return identity, nil
}

func (uc *UseCase) Get(ctx context.Context, address string) (*domain.Identity, error) {
	return uc.state.GetIdentity(address)
}

func (uc *UseCase) IsRegistered(address string) bool {
	return uc.state.IsRegistered(address)
}

func (uc *UseCase) TrustLevel(address string) int {
	return uc.state.TrustLevel(address)
}

func (uc *UseCase) UpdateReputation(ctx context.Context, caller, target string, delta int) (domain.Reputation, error) {
	score, err := uc.state.UpdateReputation(caller, target, delta)
	if err != nil {
		return 0, err
	}
	uc.projectAddress(ctx, target)
	return score, nil
}

func (uc *UseCase) VerifyIdentity(ctx context.Context, caller, target string) error {
	if err := uc.state.VerifyIdentity(caller, target); err != nil {
		return err
	}
	uc.projectAddress(ctx, target)
	return nil
}

func (uc *UseCase) Grant(caller, target string, role domain.Role) error {
	return uc.state.Grant(caller, target, role)
}

func (uc *UseCase) Revoke(caller, target string, role domain.Role) error {
	return uc.state.Revoke(caller, target, role)
}

// ListIdentities reads from the projection store; restarts may lag behind the
// in-memory registry until the buffer drains.
func (uc *UseCase) ListIdentities(ctx context.Context, limit, offset int) ([]domain.Identity, error) {
	return uc.identities.List(ctx, limit, offset)
}

func (uc *UseCase) projectAddress(ctx context.Context, address string) {
	identity, err := uc.state.GetIdentity(address)
	if err != nil {
		return
	}
	uc.project(ctx, identity)
}

func (uc *UseCase) project(ctx context.Context, identity *domain.Identity) {
	if uc.identities == nil {
		return
	}
	if err := uc.identities.Upsert(ctx, identity); err != nil {
		uc.shouldBuffer(ctx, identity, err)
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, identity *domain.Identity, cause error) {
	if uc.buffer == nil {
		uc.logger.Error("identity projection failed", zap.String("address", identity.Address), zap.Error(cause))
		return
	}
	if err := uc.buffer.BufferIdentity(ctx, identity); err != nil {
		uc.logger.Error("failed to buffer identity projection", zap.String("address", identity.Address), zap.Error(err))
		return
	}
	uc.logger.Warn("identity projection buffered", zap.String("address", identity.Address), zap.Error(cause))
}
