package repository

import (
	"context"

	"github.com/d1sturb/refkeeper/internal/model"
)

// ReferralRepository persists attributed visits and the link cache.
type ReferralRepository interface {
	// AddVisit appends an attributed visit. Returns false with no error if
	// the visitor is already attributed (first attribution wins).
	AddVisit(ctx context.Context, visit model.ReferralVisit) (bool, error)
	// VisitsByInviter returns all visits attributed to the inviter, oldest first.
	VisitsByInviter(ctx context.Context, inviterID int64) ([]model.ReferralVisit, error)
	// CacheLink stores the derived referral link for a principal. The cache
	// never feeds link derivation back; it exists for reporting only.
	CacheLink(ctx context.Context, principalID int64, link string) error
}
