package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/d1sturb/refkeeper/internal/model"
)

func TestReferralRepo_AddVisit_InsertAndDedup(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewReferralRepo(db)
	ctx := context.Background()

	v := model.ReferralVisit{
		ID:        uuid.Must(uuid.NewV4()),
		InviterID: 7,
		VisitorID: 9,
		VisitedAt: time.Now(),
	}

	// first attribution lands
	mock.ExpectExec(`INSERT INTO referral_visits \(id, inviter_id, visitor_id, visited_at\) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT \(visitor_id\) DO NOTHING`).
		WithArgs(v.ID, v.InviterID, v.VisitorID, v.VisitedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := r.AddVisit(ctx, v)
	require.NoError(t, err)
	require.True(t, ok)

	// repeat visitor conflicts away
	mock.ExpectExec(`INSERT INTO referral_visits \(id, inviter_id, visitor_id, visited_at\) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT \(visitor_id\) DO NOTHING`).
		WithArgs(v.ID, v.InviterID, v.VisitorID, v.VisitedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = r.AddVisit(ctx, v)
	require.NoError(t, err)
	require.False(t, ok)

	// storage failure propagates
	mock.ExpectExec(`INSERT INTO referral_visits`).
		WithArgs(v.ID, v.InviterID, v.VisitorID, v.VisitedAt).
		WillReturnError(errors.New("boom"))
	_, err = r.AddVisit(ctx, v)
	require.Error(t, err)
}

func TestReferralRepo_VisitsByInviter(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewReferralRepo(db)
	ctx := context.Background()

	id1 := uuid.Must(uuid.NewV4())
	id2 := uuid.Must(uuid.NewV4())
	ts := time.Now()

	mock.ExpectQuery(`SELECT id, inviter_id, visitor_id, visited_at FROM referral_visits WHERE inviter_id=\$1 ORDER BY visited_at ASC`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inviter_id", "visitor_id", "visited_at"}).
			AddRow(id1, int64(7), int64(9), ts).
			AddRow(id2, int64(7), int64(11), ts.Add(time.Minute)))

	visits, err := r.VisitsByInviter(ctx, 7)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	require.Equal(t, int64(9), visits[0].VisitorID)
	require.Equal(t, int64(11), visits[1].VisitorID)
}

func TestReferralRepo_CacheLink(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewReferralRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO referral_links \(principal_id, link\) VALUES \(\$1, \$2\) ON CONFLICT \(principal_id\) DO UPDATE SET link=EXCLUDED\.link, updated_at=now\(\)`).
		WithArgs(int64(42), "https://t.me/bot/app?startapp=ref_42").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.CacheLink(ctx, 42, "https://t.me/bot/app?startapp=ref_42"))
}
