package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/repository"
)

// UseCase issues and tracks API sessions for registered participants.
// Sessions live in Redis; the bearer token is a signed JWT carrying the
// participant address and session id.
type UseCase struct {
	state    *core.State
	sessions repository.SessionRepository
	secret   []byte
	issuer   string
	logger   *zap.Logger
}

func New(state *core.State, sessions repository.SessionRepository, secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		state:    state,
		sessions: sessions,
		secret:   []byte(secret),
		issuer:   issuer,
		logger:   logger,
	}
}

// Login creates a session for a registered address and returns it together
// with the signed bearer token.
func (uc *UseCase) Login(ctx context.Context, address string, ttl time.Duration) (*domain.Session, string, error) {
	if address == "" {
		return nil, "", domain.ErrInvalidPayload
	}
	if !uc.state.IsRegistered(address) {
		return nil, "", domain.ErrIdentityNotFound
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Address:   address,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := uc.signToken(session)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, "", err
	}
	return session, token, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, string, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, "", err
	}
	session.ExpiresAt = time.Now().Add(ttl)

	token, err := uc.signToken(session)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) signToken(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"address":    session.Address,
		"session_id": session.ID,
		"iss":        uc.issuer,
		"iat":        session.CreatedAt.Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(uc.secret)
}
