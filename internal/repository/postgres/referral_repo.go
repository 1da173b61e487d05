package postgres

import (
	"context"

	"github.com/d1sturb/refkeeper/internal/model"
)

// ReferralRepo implements ReferralRepository using PostgreSQL.
type ReferralRepo struct{ db *DB }

// NewReferralRepo constructs a referral repository.
func NewReferralRepo(db *DB) *ReferralRepo { return &ReferralRepo{db: db} }

// AddVisit appends a visit. The UNIQUE constraint on visitor_id enforces
// first-attribution-wins; a conflicting insert affects zero rows.
func (r *ReferralRepo) AddVisit(ctx context.Context, v model.ReferralVisit) (bool, error) {
	const q = `
INSERT INTO referral_visits (id, inviter_id, visitor_id, visited_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (visitor_id) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, v.ID, v.InviterID, v.VisitorID, v.VisitedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// VisitsByInviter returns visits attributed to the inviter, oldest first.
func (r *ReferralRepo) VisitsByInviter(ctx context.Context, inviterID int64) ([]model.ReferralVisit, error) {
	const q = `
SELECT id, inviter_id, visitor_id, visited_at
FROM referral_visits WHERE inviter_id=$1 ORDER BY visited_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReferralVisit
	for rows.Next() {
		var v model.ReferralVisit
		if err := rows.Scan(&v.ID, &v.InviterID, &v.VisitorID, &v.VisitedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CacheLink stores the derived link for a principal, overwriting any prior
// value. Best-effort from the caller's perspective.
func (r *ReferralRepo) CacheLink(ctx context.Context, principalID int64, link string) error {
	const q = `
INSERT INTO referral_links (principal_id, link)
VALUES ($1, $2)
ON CONFLICT (principal_id) DO UPDATE SET link=EXCLUDED.link, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, principalID, link)
	return err
}
