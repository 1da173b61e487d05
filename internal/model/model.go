// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// PrincipalClaim is the verified identity extracted from a credential
// string. It is built only after signature verification succeeds and is
// never persisted as-is.
type PrincipalClaim struct {
	ID         int64  // stable platform user id, >= 0
	FirstName  string // optional, not trust-critical
	Username   string // optional
	PhotoURL   string // optional
	StartParam string // attribution hint, passed through verbatim
	IssuedAt   time.Time
}

// Principal is a durable profile keyed by platform user id. Fields
// overwrite on each upsert; CreatedAt is set once.
type Principal struct {
	ID        int64
	FirstName string
	Username  string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReferralVisit is a single attributed visit. Append-only; at most one per
// visitor (first attribution wins).
type ReferralVisit struct {
	ID        uuid.UUID
	InviterID int64
	VisitorID int64
	VisitedAt time.Time
}

// Tokens collects an issued session token and its expiry.
type Tokens struct {
	SessionToken string
	ExpiresAt    time.Time
}
