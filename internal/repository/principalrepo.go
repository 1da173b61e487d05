// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/d1sturb/refkeeper/internal/model"
)

// PrincipalRepository provides single-row access to durable principal profiles.
type PrincipalRepository interface {
	// Upsert inserts or updates the profile by id. CreatedAt is set once,
	// UpdatedAt refreshed on every call; profile fields overwrite
	// (last-writer-wins).
	Upsert(ctx context.Context, claim model.PrincipalClaim) (*model.Principal, error)
	// GetByID loads a profile by principal id.
	GetByID(ctx context.Context, id int64) (*model.Principal, error)
}
