package memory

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
)

func TestStore_Upsert_CreatedOnceUpdatedAlways(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ts := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return ts }
	ctx := context.Background()

	p1, err := s.Upsert(ctx, model.PrincipalClaim{ID: 1, FirstName: "a"})
	require.NoError(t, err)
	require.Equal(t, ts, p1.CreatedAt)

	ts2 := ts.Add(time.Hour)
	s.now = func() time.Time { return ts2 }
	p2, err := s.Upsert(ctx, model.PrincipalClaim{ID: 1, FirstName: "b"})
	require.NoError(t, err)
	require.Equal(t, ts, p2.CreatedAt, "CreatedAt must survive upserts")
	require.Equal(t, ts2, p2.UpdatedAt)
	require.Equal(t, "b", p2.FirstName, "fields overwrite on conflict")

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, *p2, *got)

	_, err = s.GetByID(ctx, 2)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_AddVisit_FirstAttributionWins(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	first := model.ReferralVisit{ID: uuid.Must(uuid.NewV4()), InviterID: 7, VisitorID: 9, VisitedAt: time.Now()}
	ok, err := s.AddVisit(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)

	// same visitor, different inviter: no second attribution
	repeat := model.ReferralVisit{ID: uuid.Must(uuid.NewV4()), InviterID: 8, VisitorID: 9, VisitedAt: time.Now()}
	ok, err = s.AddVisit(ctx, repeat)
	require.NoError(t, err)
	require.False(t, ok)

	visits, err := s.VisitsByInviter(ctx, 7)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Equal(t, first, visits[0])

	visits, err = s.VisitsByInviter(ctx, 8)
	require.NoError(t, err)
	require.Empty(t, visits)
}

func TestStore_CacheLink(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.NoError(t, s.CacheLink(context.Background(), 42, "https://t.me/bot/app?startapp=ref_42"))
	require.Equal(t, "https://t.me/bot/app?startapp=ref_42", s.links[42])
}
