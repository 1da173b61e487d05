package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
	"github.com/d1sturb/refkeeper/internal/repository"
)

// hintPrefix marks an attribution hint carrying an inviter id.
const hintPrefix = "ref_"

// ReferralService defines referral link derivation and visit attribution.
type ReferralService interface {
	// Link returns the deterministic referral link for a principal.
	Link(ctx context.Context, principalID int64) (string, error)
	// RegisterVisit records an attributed visit from a verified claim.
	// Returns false (no error) when the hint is absent or malformed, on
	// self-referral, or when the visitor is already attributed.
	RegisterVisit(ctx context.Context, claim model.PrincipalClaim) (bool, error)
	// Visits lists visits attributed to an inviter.
	Visits(ctx context.Context, inviterID int64) ([]model.ReferralVisit, error)
}

type ReferralServiceImpl struct {
	repo         repository.ReferralRepository
	botUsername  string
	appShortName string
	storeTimeout time.Duration
	now          func() time.Time
	newID        func() (uuid.UUID, error)
}

// NewReferralService constructs ReferralService. botUsername and
// appShortName are deployment-wide identifiers set by BotFather; Link fails
// with ErrConfigMissing while either is empty.
func NewReferralService(repo repository.ReferralRepository, botUsername, appShortName string, storeTimeout time.Duration) *ReferralServiceImpl {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &ReferralServiceImpl{
		repo:         repo,
		botUsername:  botUsername,
		appShortName: appShortName,
		storeTimeout: storeTimeout,
		now:          time.Now,
		newID:        uuid.NewV4,
	}
}

// Link derives the referral link as a pure function of the principal id and
// deployment identifiers. The cache write is best-effort and never changes
// the returned value.
func (s *ReferralServiceImpl) Link(ctx context.Context, principalID int64) (string, error) {
	if s.botUsername == "" || s.appShortName == "" {
		return "", errs.ErrConfigMissing
	}
	link := fmt.Sprintf("https://t.me/%s/%s?startapp=%s%d", s.botUsername, s.appShortName, hintPrefix, principalID)

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	_ = s.repo.CacheLink(sctx, principalID, link)

	return link, nil
}

// RegisterVisit attributes the visitor to the inviter named by the hint.
func (s *ReferralServiceImpl) RegisterVisit(ctx context.Context, claim model.PrincipalClaim) (bool, error) {
	inviterID, ok := parseHint(claim.StartParam)
	if !ok {
		return false, nil
	}
	if inviterID == claim.ID {
		// self-referral never counted
		return false, nil
	}

	id, err := s.newID()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	visit := model.ReferralVisit{
		ID:        id,
		InviterID: inviterID,
		VisitorID: claim.ID,
		VisitedAt: s.now().UTC(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	registered, err := s.repo.AddVisit(sctx, visit)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	return registered, nil
}

// Visits lists visits attributed to an inviter.
func (s *ReferralServiceImpl) Visits(ctx context.Context, inviterID int64) ([]model.ReferralVisit, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	visits, err := s.repo.VisitsByInviter(sctx, inviterID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	return visits, nil
}

// parseHint extracts the inviter id from a "ref_<id>" hint. Anything else
// is not an attribution hint.
func parseHint(hint string) (int64, bool) {
	rest, ok := strings.CutPrefix(hint, hintPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
