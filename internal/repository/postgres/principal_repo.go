package postgres

import (
	"context"
	"errors"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
)

// PrincipalRepo implements PrincipalRepository using PostgreSQL.
type PrincipalRepo struct{ db *DB }

// NewPrincipalRepo constructs a principal repository.
func NewPrincipalRepo(db *DB) *PrincipalRepo { return &PrincipalRepo{db: db} }

// Upsert inserts or updates a profile row, refreshing updated_at.
func (r *PrincipalRepo) Upsert(ctx context.Context, claim model.PrincipalClaim) (*model.Principal, error) {
	const q = `
INSERT INTO principals (id, first_name, username, photo_url)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET first_name=EXCLUDED.first_name, username=EXCLUDED.username, photo_url=EXCLUDED.photo_url, updated_at=now()
RETURNING id, first_name, username, photo_url, created_at, updated_at`
	row := r.db.Pool.QueryRow(ctx, q, claim.ID, claim.FirstName, claim.Username, claim.PhotoURL)
	var p model.Principal
	if err := row.Scan(&p.ID, &p.FirstName, &p.Username, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID selects a profile by principal id.
func (r *PrincipalRepo) GetByID(ctx context.Context, id int64) (*model.Principal, error) {
	const q = `
SELECT id, first_name, username, photo_url, created_at, updated_at
FROM principals WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var p model.Principal
	if err := row.Scan(&p.ID, &p.FirstName, &p.Username, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &p, nil
}
