// Package service contains application services for authentication and referrals.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/initdata"
	"github.com/d1sturb/refkeeper/internal/limiter"
	"github.com/d1sturb/refkeeper/internal/model"
	"github.com/d1sturb/refkeeper/internal/repository"
	"github.com/d1sturb/refkeeper/internal/session"
)

// DefaultStoreTimeout bounds every store call so a slow backend surfaces
// ErrStorageUnavailable instead of hanging the request.
const DefaultStoreTimeout = 3 * time.Second

// AuthService defines credential verification and session operations.
type AuthService interface {
	// AuthenticateWithIP applies rate limiting, verifies the credential
	// string, upserts the profile and mints a session token.
	AuthenticateWithIP(ctx context.Context, initData, ip string) (model.Tokens, *model.Principal, error)
	// VerifyWithIP validates a credential string under the same per-IP
	// failure budget as AuthenticateWithIP, without touching the profile
	// store. Every endpoint that verifies credentials must go through the
	// limiter; a locked-out client gets no verification oracle.
	VerifyWithIP(ctx context.Context, initData, ip string) (model.PrincipalClaim, error)
	// ReadSession recovers the principal id from a session token.
	ReadSession(token string) (int64, error)
	// Principal loads a stored profile by id.
	Principal(ctx context.Context, id int64) (*model.Principal, error)
}

type AuthServiceImpl struct {
	verifier     *initdata.Verifier
	principals   repository.PrincipalRepository
	sessions     *session.Issuer
	lim          limiter.Limiter
	storeTimeout time.Duration
}

// NewAuthService constructs AuthService with required dependencies.
// storeTimeout <= 0 falls back to DefaultStoreTimeout.
func NewAuthService(verifier *initdata.Verifier, principals repository.PrincipalRepository, sessions *session.Issuer, lim limiter.Limiter, storeTimeout time.Duration) *AuthServiceImpl {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &AuthServiceImpl{verifier: verifier, principals: principals, sessions: sessions, lim: lim, storeTimeout: storeTimeout}
}

// AuthenticateWithIP verifies with rate limiting by client IP. Verification
// failures are terminal and keep their distinct kind; only the limiter may
// replace them with ErrRateLimited.
func (s *AuthServiceImpl) AuthenticateWithIP(ctx context.Context, initData, ip string) (model.Tokens, *model.Principal, error) {
	claim, err := s.VerifyWithIP(ctx, initData, ip)
	if err != nil {
		return model.Tokens{}, nil, err
	}

	p, err := s.upsert(ctx, claim)
	if err != nil {
		return model.Tokens{}, nil, err
	}

	tokens, err := s.sessions.Issue(claim.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tokens, p, nil
}

// VerifyWithIP validates a credential string with the per-IP failure budget
// applied. All verification endpoints share this one budget.
func (s *AuthServiceImpl) VerifyWithIP(ctx context.Context, initData, ip string) (model.PrincipalClaim, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, ipHash)
	if err != nil {
		return model.PrincipalClaim{}, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	if !allowed {
		return model.PrincipalClaim{}, errs.ErrRateLimited
	}

	claim, err := s.verifier.Verify(initData)
	if err != nil {
		if blocked, _, ferr := s.lim.Failure(ctx, ipHash); ferr == nil && blocked {
			return model.PrincipalClaim{}, errs.ErrRateLimited
		}
		return model.PrincipalClaim{}, err
	}

	// best-effort counter reset
	_ = s.lim.Success(ctx, ipHash)

	return claim, nil
}

func (s *AuthServiceImpl) upsert(ctx context.Context, claim model.PrincipalClaim) (*model.Principal, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	p, err := s.principals.Upsert(sctx, claim)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	return p, nil
}

// ReadSession recovers the principal id from a session token.
func (s *AuthServiceImpl) ReadSession(token string) (int64, error) {
	return s.sessions.Read(token)
}

// Principal loads a stored profile by id.
func (s *AuthServiceImpl) Principal(ctx context.Context, id int64) (*model.Principal, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.principals.GetByID(sctx, id)
}
