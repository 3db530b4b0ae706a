package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/wishly/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func threePairs() []models.SecretSantaAssignment {
	return []models.SecretSantaAssignment{
		{GiverID: "a", ReceiverID: "b"},
		{GiverID: "b", ReceiverID: "c"},
		{GiverID: "c", ReceiverID: "a"},
	}
}

func TestBuildAssignmentInsert(t *testing.T) {
	query, args := buildAssignmentInsert("occ", threePairs())
	require.Equal(t,
		"INSERT INTO secret_santa_assignments (occasion_id, giver_id, receiver_id) VALUES ($1, $2, $3), ($1, $4, $5), ($1, $6, $7)",
		query)
	require.Equal(t, []interface{}{"occ", "a", "b", "b", "c", "c", "a"}, args)
}

func TestSaveMatching(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)
	now := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE occasions SET matched = TRUE")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"matched_at"}).AddRow(now))
	mock.ExpectQuery(q("SELECT user_id FROM occasion_members")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("a").AddRow("b").AddRow("c"))
	mock.ExpectExec(q("DELETE FROM secret_santa_assignments")).
		WithArgs("occ").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("INSERT INTO secret_santa_assignments")).
		WithArgs("occ", "a", "b", "b", "c", "c", "a").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	matchedAt, err := repo.SaveMatching(context.Background(), "occ", threePairs())
	require.NoError(t, err)
	require.Equal(t, now, matchedAt)
}

func TestSaveMatchingAlreadyMatched(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE occasions SET matched = TRUE")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"matched_at"}))
	mock.ExpectQuery(q("SELECT EXISTS")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.SaveMatching(context.Background(), "occ", threePairs())
	require.ErrorIs(t, err, ErrOccasionAlreadyMatched)
}

func TestSaveMatchingMissingOccasion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE occasions SET matched = TRUE")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"matched_at"}))
	mock.ExpectQuery(q("SELECT EXISTS")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.SaveMatching(context.Background(), "occ", threePairs())
	require.ErrorIs(t, err, ErrOccasionNotFound)
}

func TestSaveMatchingMembershipChanged(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE occasions SET matched = TRUE")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"matched_at"}).AddRow(time.Now()))
	mock.ExpectQuery(q("SELECT user_id FROM occasion_members")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("a").AddRow("b").AddRow("c").AddRow("d"))
	mock.ExpectRollback()

	_, err := repo.SaveMatching(context.Background(), "occ", threePairs())
	require.ErrorIs(t, err, ErrMembershipChanged)
}

func TestGetReceiver(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectQuery(q("FROM secret_santa_assignments a")).
		WithArgs("occ", "a").
		WillReturnRows(sqlmock.NewRows([]string{"receiver_id", "name"}).AddRow("b", "Bob"))

	got, err := repo.GetReceiver(context.Background(), "occ", "a")
	require.NoError(t, err)
	require.Equal(t, &models.MyAssignment{OccasionID: "occ", ReceiverID: "b", ReceiverName: "Bob"}, got)
}

func TestGetReceiverNotMatched(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectQuery(q("FROM secret_santa_assignments a")).
		WithArgs("occ", "a").
		WillReturnRows(sqlmock.NewRows([]string{"receiver_id", "name"}))
	mock.ExpectQuery(q("SELECT matched FROM occasions")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"matched"}).AddRow(false))

	_, err := repo.GetReceiver(context.Background(), "occ", "a")
	require.ErrorIs(t, err, ErrOccasionNotMatched)
}

func TestResetNotMatched(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE occasions SET matched = FALSE")).
		WithArgs("occ").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT EXISTS")).
		WithArgs("occ").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Reset(context.Background(), "occ"), ErrOccasionNotMatched)
}

func TestReset(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE occasions SET matched = FALSE")).
		WithArgs("occ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM secret_santa_assignments")).
		WithArgs("occ").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Reset(context.Background(), "occ"))
}
