package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/timeguard/internal/models"
)

func TestAccessLog_Insert(t *testing.T) {
	t.Run("Named parameters are bound positionally", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewAccessLogRepository(pool)
		now := time.Now()
		record := &models.AccessLogRecord{
			CreatedAt:     now,
			RequestID:     "req-1",
			Method:        "GET",
			Path:          "/timesheet/api/entries",
			Query:         "from=2024-01-01",
			Status:        200,
			DurationMs:    12,
			RemoteIP:      "10.0.0.1",
			UserAgent:     "curl/8.0",
			Referer:       "",
			Username:      "alice",
			RequestBytes:  0,
			ResponseBytes: 512,
		}
		mock.ExpectExec(`INSERT INTO access_log .* VALUES \( \$1, \$2, \$3`).
			WithArgs(now, "req-1", "GET", "/timesheet/api/entries", "from=2024-01-01", 200, int64(12),
				"10.0.0.1", "curl/8.0", "", "alice", int64(0), int64(512)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		// Act
		err := repo.Insert(context.Background(), record)

		// Assert
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		pool, mock, cleanup := setupDBMock(t)
		defer cleanup()
		repo := NewAccessLogRepository(pool)
		mock.ExpectExec("INSERT INTO access_log").WillReturnError(errors.New("disk full"))

		err := repo.Insert(context.Background(), &models.AccessLogRecord{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert access log record")
	})
}

func TestAccessLog_List(t *testing.T) {
	pool, mock, cleanup := setupDBMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(pool)
	now := time.Now()
	columns := []string{"id", "created_at", "request_id", "method", "path", "query", "status", "duration_ms",
		"remote_ip", "user_agent", "referer", "username", "request_bytes", "response_bytes"}
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM access_log").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))
	mock.ExpectQuery("SELECT id, created_at, request_id, .* FROM access_log ORDER BY created_at DESC, id DESC LIMIT \\$1 OFFSET \\$2").
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(11, now, "req-11", "POST", "/api/auth/login", "", 401, 3, "10.0.0.1", "", "", "", 40, 90))

	records, total, err := repo.List(context.Background(), 20, 20)

	require.NoError(t, err)
	assert.Equal(t, 31, total)
	require.Len(t, records, 1)
	assert.Equal(t, 401, records[0].Status)
	assert.Equal(t, int64(90), records[0].ResponseBytes)
}

func TestAccessLog_DeleteOlderThan(t *testing.T) {
	pool, mock, cleanup := setupDBMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(pool)
	cutoff := time.Now().AddDate(0, 0, -90)
	mock.ExpectExec("DELETE FROM access_log WHERE created_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(17), deleted)
}
