package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepilot/backend/internal/model"
	"notepilot/backend/internal/repository"
)

func setupRepo(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteRepository(db), mockDB
}

// TestSQLiteRepository_SaveSessions verifies the session list is stored
// as one JSON document under the sessions key.
func TestSQLiteRepository_SaveSessions(t *testing.T) {
	repo, mockDB := setupRepo(t)

	sessions := []model.ChatSession{{ID: "s1", Title: "First"}}
	mockDB.ExpectExec("INSERT INTO storage").
		WithArgs(repository.KeySessions, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveSessions(context.Background(), sessions)
	assert.NoError(t, err)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

// TestSQLiteRepository_LoadSessions covers the three read outcomes: stored
// data, no row yet, and corrupt JSON.
func TestSQLiteRepository_LoadSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored sessions", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		stored := `[{"id":"s1","title":"First","timestamp":"2026-08-01T10:00:00Z","messages":null}]`
		mockDB.ExpectQuery("SELECT value FROM storage").
			WithArgs(repository.KeySessions).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(stored))

		sessions, err := repo.LoadSessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "s1", sessions[0].ID)
	})

	t.Run("missing row yields empty list", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectQuery("SELECT value FROM storage").
			WithArgs(repository.KeySessions).
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		sessions, err := repo.LoadSessions(ctx)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("corrupt JSON yields error", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectQuery("SELECT value FROM storage").
			WithArgs(repository.KeySessions).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("{not json"))

		_, err := repo.LoadSessions(ctx)
		assert.Error(t, err)
	})
}

// TestSQLiteRepository_CurrentSessionID verifies the pointer key round
// trip, including the clear-on-empty behavior.
func TestSQLiteRepository_CurrentSessionID(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectExec("INSERT INTO storage").
			WithArgs(repository.KeyCurrentID, "s1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mockDB.ExpectQuery("SELECT value FROM storage").
			WithArgs(repository.KeyCurrentID).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("s1"))

		require.NoError(t, repo.SaveCurrentSessionID(ctx, "s1"))
		id, err := repo.LoadCurrentSessionID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "s1", id)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("empty id deletes the row", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectExec("DELETE FROM storage").
			WithArgs(repository.KeyCurrentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveCurrentSessionID(ctx, ""))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("missing pointer maps to ErrNotFound", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectQuery("SELECT value FROM storage").
			WithArgs(repository.KeyCurrentID).
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := repo.LoadCurrentSessionID(ctx)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
