package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
)

// AccessLogRepository defines methods for the append-only request audit log.
type AccessLogRepository interface {
	// Insert appends one record.
	Insert(ctx context.Context, record *models.AccessLogRecord) error

	// List returns a page of records, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]*models.AccessLogRecord, int, error)

	// DeleteOlderThan removes records created before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresAccessLogRepository is an implementation of AccessLogRepository for PostgreSQL.
type PostgresAccessLogRepository struct {
	db *database.Pool
}

// NewAccessLogRepository creates a new AccessLogRepository for PostgreSQL.
func NewAccessLogRepository(db *database.Pool) AccessLogRepository {
	return &PostgresAccessLogRepository{
		db: db,
	}
}

// Insert appends one record.
func (r *PostgresAccessLogRepository) Insert(ctx context.Context, record *models.AccessLogRecord) error {
	query := `
		INSERT INTO access_log (
			created_at, request_id, method, path, query, status, duration_ms,
			remote_ip, user_agent, referer, username, request_bytes, response_bytes
		) VALUES (
			:created_at, :request_id, :method, :path, :query, :status, :duration_ms,
			:remote_ip, :user_agent, :referer, :username, :request_bytes, :response_bytes
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert access log record: %w", err)
	}
	return nil
}

// List returns a page of records, newest first.
func (r *PostgresAccessLogRepository) List(ctx context.Context, offset, limit int) ([]*models.AccessLogRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM access_log`); err != nil {
		return nil, 0, fmt.Errorf("failed to count access log records: %w", err)
	}

	query := `
		SELECT id, created_at, request_id, method, path,
			COALESCE(query, '') AS query, status, duration_ms, remote_ip,
			COALESCE(user_agent, '') AS user_agent, COALESCE(referer, '') AS referer,
			COALESCE(username, '') AS username, request_bytes, response_bytes
		FROM access_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	records := []*models.AccessLogRecord{}
	if err := r.db.SelectContext(ctx, &records, query, clampLimit(limit), offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list access log records: %w", err)
	}

	return records, total, nil
}

// DeleteOlderThan removes records created before the cutoff.
func (r *PostgresAccessLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge access log records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
