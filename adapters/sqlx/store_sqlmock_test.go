package sqlx_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "leaderkit/adapters/sqlx"
	"leaderkit/core"
)

func newMockStore(t *testing.T, driver storage.Driver) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	store, err := storage.NewWithDB(libsqlx.NewDb(db, string(driver)), storage.DefaultConfig(driver))
	require.NoError(t, err)
	cleanup := func() {
		_ = db.Close()
	}
	return store, mock, cleanup
}

func TestSQLMock_Upsert_Postgres(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO leaderboard_scores .*ON CONFLICT`).
		WithArgs("g1", "alice", int64(50)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Upsert(context.Background(), "g1", "alice", 50))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Upsert_MySQL(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverMySQL)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO leaderboard_scores .*ON DUPLICATE KEY UPDATE`).
		WithArgs("g1", "alice", int64(50)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Upsert(context.Background(), "g1", "alice", 50))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopN(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectQuery(`SELECT user_id AS user_id, score AS score FROM leaderboard_scores`).
		WithArgs("g1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "score"}).
			AddRow("bob", 70).
			AddRow("alice", 50))

	top, err := store.TopN(context.Background(), "g1", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, core.UserID("bob"), top[0].UserID)
	require.Equal(t, int64(70), top[0].Score)
	require.Equal(t, core.GameID("g1"), top[0].GameID)
	require.Equal(t, core.UserID("alice"), top[1].UserID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopN_Empty(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectQuery(`SELECT user_id AS user_id, score AS score FROM leaderboard_scores`).
		WithArgs("empty", 10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "score"}))

	top, err := store.TopN(context.Background(), "empty", 10)
	require.NoError(t, err)
	require.Empty(t, top)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfig_Validate(t *testing.T) {
	cfg := storage.DefaultConfig(storage.DriverPostgres)
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Table = "scores; DROP TABLE users"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Columns.UserID = "user-id"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Driver = "sqlite"
	require.Error(t, bad.Validate())
}

func TestCustomColumnMapping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	cfg := storage.DefaultConfig(storage.DriverPostgres)
	cfg.Table = "game_scores"
	cfg.Columns = storage.Columns{GameID: "gid", UserID: "uid", Score: "points"}

	store, err := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), cfg)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO game_scores \(gid, uid, points\)`).
		WithArgs("g1", "alice", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Upsert(context.Background(), "g1", "alice", 5))
	require.NoError(t, mock.ExpectationsWereMet())
}
