package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPWhitelist_EnsureTracked(t *testing.T) {
	t.Run("Insert is idempotent", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPWhitelistRepository(pool)
		mock.ExpectExec(`INSERT INTO ip_whitelist .* ON CONFLICT \(ip_address\) DO NOTHING`).
			WithArgs("10.0.0.1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO ip_whitelist .* ON CONFLICT \(ip_address\) DO NOTHING`).
			WithArgs("10.0.0.1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		first := repo.EnsureTracked(context.Background(), "10.0.0.1")
		second := repo.EnsureTracked(context.Background(), "10.0.0.1")

		// Assert
		assert.NoError(t, first)
		assert.NoError(t, second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPWhitelistRepository(pool)
		mock.ExpectExec("INSERT INTO ip_whitelist").WillReturnError(errors.New("read only"))

		err := repo.EnsureTracked(context.Background(), "10.0.0.1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to track IP address")
	})
}

func TestIPWhitelist_MarkBlocked(t *testing.T) {
	pool, mock, cleanup := setupDBMock(t)
	defer cleanup()
	repo := NewIPWhitelistRepository(pool)
	mock.ExpectExec(`INSERT INTO ip_whitelist .* DO UPDATE SET blacklisted = TRUE, blacklisted_count = ip_whitelist.blacklisted_count \+ 1`).
		WithArgs("10.0.0.9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkBlocked(context.Background(), "10.0.0.9")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIPWhitelist_List(t *testing.T) {
	pool, mock, cleanup := setupDBMock(t)
	defer cleanup()
	repo := NewIPWhitelistRepository(pool)
	now := time.Now()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ip_whitelist").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, ip_address, first_seen_at, blacklisted, blacklisted_count FROM ip_whitelist").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ip_address", "first_seen_at", "blacklisted", "blacklisted_count"}).
			AddRow(1, "10.0.0.1", now, true, 4))

	entries, total, err := repo.List(context.Background(), 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Blacklisted)
	assert.Equal(t, 4, entries[0].BlacklistedCount)
}

func TestIPWhitelist_Reconcile(t *testing.T) {
	t.Run("Counts inserted and updated rows", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPWhitelistRepository(pool)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ip_whitelist .* FROM ip_blacklist b ON CONFLICT").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE ip_whitelist w SET blacklisted = TRUE, blacklisted_count = GREATEST").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		// Act
		changed, err := repo.Reconcile(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(5), changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second pass changes nothing", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPWhitelistRepository(pool)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ip_whitelist").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE ip_whitelist").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		changed, err := repo.Reconcile(context.Background())

		require.NoError(t, err)
		assert.Zero(t, changed)
	})

	t.Run("Failure rolls back", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewIPWhitelistRepository(pool)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ip_whitelist").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE ip_whitelist").WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		changed, err := repo.Reconcile(context.Background())

		require.Error(t, err)
		assert.Zero(t, changed)
		assert.Contains(t, err.Error(), "failed to reconcile whitelist rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
