package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// setupDBMock creates a new mock database and pool for testing
func setupDBMock(t *testing.T) (*database.Pool, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")

	pool := database.NewPool(sqlx.NewDb(db, "postgres"))

	return pool, mock, func() {
		db.Close()
	}
}

var blacklistRowColumns = []string{"id", "ip_address", "state", "times", "reason", "created_at", "updated_at"}

func TestNewIPBlacklistRepository(t *testing.T) {
	pool, _, cleanup := setupDBMock(t)
	defer cleanup()

	repo := NewIPBlacklistRepository(pool)

	assert.NotNil(t, repo)
	assert.Implements(t, (*IPBlacklistRepository)(nil), repo)
}

func TestIPBlacklist_IsBlacklisted(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{name: "Active entry", exists: true},
		{name: "No active entry", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			pool, mock, cleanup := setupDBMock(t)
			defer cleanup()
			repo := NewIPBlacklistRepository(pool)
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs("10.0.0.1", "active").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			// Act
			got, err := repo.IsBlacklisted(context.Background(), "10.0.0.1")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.exists, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Database error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("connection reset"))

		_, err := repo.IsBlacklisted(context.Background(), "10.0.0.1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check IP blacklist")
	})
}

func TestIPBlacklist_Upsert(t *testing.T) {
	t.Run("Single statement increments and reinstates", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO ip_blacklist .* ON CONFLICT \(ip_address\) DO UPDATE SET times = ip_blacklist.times \+ 1, state = EXCLUDED.state`).
			WithArgs("10.0.0.1", "active", "geo-blocked").
			WillReturnRows(sqlmock.NewRows(blacklistRowColumns).
				AddRow(7, "10.0.0.1", "active", 3, "geo-blocked", now, now))

		// Act
		entry, err := repo.Upsert(context.Background(), "10.0.0.1", "geo-blocked")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(7), entry.ID)
		assert.Equal(t, 3, entry.Times)
		assert.Equal(t, models.StateActive, entry.State)
		assert.False(t, entry.IsDeleted())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectQuery("INSERT INTO ip_blacklist").WillReturnError(errors.New("deadlock"))

		entry, err := repo.Upsert(context.Background(), "10.0.0.1", "deny-list")

		assert.Nil(t, entry)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert IP blacklist entry")
	})
}

func TestIPBlacklist_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		now := time.Now()
		mock.ExpectQuery("SELECT .* FROM ip_blacklist WHERE id = \\$1").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(blacklistRowColumns).
				AddRow(4, "10.0.0.4", "deleted", 1, "manual", now, now))

		entry, err := repo.GetByID(context.Background(), 4)

		require.NoError(t, err)
		assert.True(t, entry.IsDeleted())
	})

	t.Run("Not found", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectQuery("SELECT .* FROM ip_blacklist").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(blacklistRowColumns))

		_, err := repo.GetByID(context.Background(), 99)

		assert.True(t, utils.IsNotFoundError(err))
	})
}

func TestIPBlacklist_SoftDelete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectExec("UPDATE ip_blacklist SET state = \\$1").
			WithArgs("deleted", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SoftDelete(context.Background(), 3)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown ID", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectExec("UPDATE ip_blacklist").
			WithArgs("deleted", int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDelete(context.Background(), 42)

		assert.True(t, utils.IsNotFoundError(err))
	})

	t.Run("Rows affected error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectExec("UPDATE ip_blacklist").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not support")))

		err := repo.SoftDelete(context.Background(), 42)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get rows affected")
	})
}

func TestIPBlacklist_List(t *testing.T) {
	t.Run("Page of active entries", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		now := time.Now()
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ip_blacklist").
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery("SELECT .* FROM ip_blacklist WHERE state = \\$1 ORDER BY").
			WithArgs("active", 20, 0).
			WillReturnRows(sqlmock.NewRows(blacklistRowColumns).
				AddRow(2, "10.0.0.2", "active", 1, "deny-list", now, now).
				AddRow(1, "10.0.0.1", "active", 5, "geo-blocked", now, now))

		entries, total, err := repo.List(context.Background(), 0, 0)

		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, entries, 2)
		assert.Equal(t, "10.0.0.2", entries[0].IPAddress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Limit is clamped", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT .* FROM ip_blacklist").
			WithArgs("active", 100, 40).
			WillReturnRows(sqlmock.NewRows(blacklistRowColumns))

		entries, _, err := repo.List(context.Background(), 40, 500)

		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Count error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPBlacklistRepository(pool)
		mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("timeout"))

		_, _, err := repo.List(context.Background(), 0, 10)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to count IP blacklist entries")
	})
}
