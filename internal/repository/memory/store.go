// Package memory provides in-memory repository implementations for tests
// and single-node deployments that run without Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
)

// Store implements PrincipalRepository and ReferralRepository behind a
// single lock. Each operation is atomic with respect to the others; that is
// all the consistency this scale needs.
type Store struct {
	mu         sync.Mutex
	principals map[int64]model.Principal
	visits     []model.ReferralVisit
	byVisitor  map[int64]struct{}
	links      map[int64]string
	now        func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		principals: map[int64]model.Principal{},
		byVisitor:  map[int64]struct{}{},
		links:      map[int64]string{},
		now:        time.Now,
	}
}

// Upsert inserts or updates a profile, keeping CreatedAt from the first write.
func (s *Store) Upsert(_ context.Context, claim model.PrincipalClaim) (*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.principals[claim.ID]
	if !ok {
		p = model.Principal{ID: claim.ID, CreatedAt: now}
	}
	p.FirstName = claim.FirstName
	p.Username = claim.Username
	p.PhotoURL = claim.PhotoURL
	p.UpdatedAt = now
	s.principals[claim.ID] = p

	out := p
	return &out, nil
}

// GetByID loads a profile by principal id.
func (s *Store) GetByID(_ context.Context, id int64) (*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.principals[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := p
	return &out, nil
}

// AddVisit appends a visit unless the visitor is already attributed.
func (s *Store) AddVisit(_ context.Context, v model.ReferralVisit) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.byVisitor[v.VisitorID]; seen {
		return false, nil
	}
	s.byVisitor[v.VisitorID] = struct{}{}
	s.visits = append(s.visits, v)
	return true, nil
}

// VisitsByInviter returns visits attributed to the inviter in append order.
func (s *Store) VisitsByInviter(_ context.Context, inviterID int64) ([]model.ReferralVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ReferralVisit
	for _, v := range s.visits {
		if v.InviterID == inviterID {
			out = append(out, v)
		}
	}
	return out, nil
}

// CacheLink stores the derived link for a principal.
func (s *Store) CacheLink(_ context.Context, principalID int64, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links[principalID] = link
	return nil
}
