package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/wishly/models"
)

func TestInviteCreatePendingConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db)

	mock.ExpectQuery(q("INSERT INTO occasion_invites")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "occasion_invites_pending_key"})

	err := repo.Create(context.Background(), &models.OccasionInvite{OccasionID: "occ", InvitedUserEmail: "b@example.com", Token: "t"})
	require.ErrorIs(t, err, ErrInvitePendingExists)
}

func TestInviteCreateTokenConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db)

	mock.ExpectQuery(q("INSERT INTO occasion_invites")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "occasion_invites_token_key"})

	err := repo.Create(context.Background(), &models.OccasionInvite{OccasionID: "occ", InvitedUserEmail: "b@example.com", Token: "t"})
	require.ErrorIs(t, err, ErrInviteTokenConflict)
}

func TestInviteUpdateStatusNotPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db)

	mock.ExpectExec(q("UPDATE occasion_invites SET status = $1")).
		WithArgs(models.InviteStatusAccepted, "inv").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), nil, "inv", models.InviteStatusAccepted)
	require.ErrorIs(t, err, ErrInviteNotPending)
}

func TestInviteDeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db)

	mock.ExpectExec(q("DELETE FROM occasion_invites WHERE status = 'pending' AND expires_at <= NOW()")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}
