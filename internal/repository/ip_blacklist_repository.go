// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// IPBlacklistRepository defines methods for managing the IP deny list.
type IPBlacklistRepository interface {
	// IsBlacklisted reports whether an active entry exists for the address.
	IsBlacklisted(ctx context.Context, ip string) (bool, error)

	// Upsert records a block event for the address in a single statement.
	// A new row starts with times=1; an existing row has times incremented
	// and is reinstated if it was soft-deleted.
	//
	// Returns:
	//   - The row after the write
	//   - Error if the operation fails
	Upsert(ctx context.Context, ip, reason string) (*models.BlacklistEntry, error)

	// GetByID retrieves an entry regardless of its state.
	GetByID(ctx context.Context, id int64) (*models.BlacklistEntry, error)

	// SoftDelete moves an entry to the deleted state.
	// Returns a NotFound error when no row has the given ID.
	SoftDelete(ctx context.Context, id int64) error

	// List returns a page of active entries and the total number of active entries.
	List(ctx context.Context, offset, limit int) ([]*models.BlacklistEntry, int, error)
}

// PostgresIPBlacklistRepository is an implementation of IPBlacklistRepository for PostgreSQL.
type PostgresIPBlacklistRepository struct {
	db database.Querier
}

// NewIPBlacklistRepository creates a new IPBlacklistRepository for PostgreSQL.
func NewIPBlacklistRepository(db *database.Pool) IPBlacklistRepository {
	return &PostgresIPBlacklistRepository{
		db: db,
	}
}

const blacklistColumns = `id, ip_address, state, times, reason, created_at, updated_at`

// IsBlacklisted reports whether an active entry exists for the address.
func (r *PostgresIPBlacklistRepository) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM ip_blacklist WHERE ip_address = $1 AND state = $2)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, ip, models.StateActive); err != nil {
		return false, fmt.Errorf("failed to check IP blacklist: %w", err)
	}
	return exists, nil
}

// Upsert records a block event for the address.
func (r *PostgresIPBlacklistRepository) Upsert(ctx context.Context, ip, reason string) (*models.BlacklistEntry, error) {
	query := `
		INSERT INTO ip_blacklist (ip_address, state, times, reason, created_at, updated_at)
		VALUES ($1, $2, 1, $3, now(), now())
		ON CONFLICT (ip_address) DO UPDATE
		SET times = ip_blacklist.times + 1,
			state = EXCLUDED.state,
			reason = EXCLUDED.reason,
			updated_at = now()
		RETURNING ` + blacklistColumns

	entry := &models.BlacklistEntry{}
	if err := r.db.GetContext(ctx, entry, query, ip, models.StateActive, reason); err != nil {
		return nil, fmt.Errorf("failed to upsert IP blacklist entry: %w", err)
	}
	return entry, nil
}

// GetByID retrieves an entry regardless of its state.
func (r *PostgresIPBlacklistRepository) GetByID(ctx context.Context, id int64) (*models.BlacklistEntry, error) {
	query := `SELECT ` + blacklistColumns + ` FROM ip_blacklist WHERE id = $1`

	entry := &models.BlacklistEntry{}
	if err := r.db.GetContext(ctx, entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("IP blacklist entry", id)
		}
		return nil, fmt.Errorf("failed to get IP blacklist entry: %w", err)
	}
	return entry, nil
}

// SoftDelete moves an entry to the deleted state.
func (r *PostgresIPBlacklistRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE ip_blacklist SET state = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, models.StateDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to delete IP blacklist entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("IP blacklist entry", id)
	}

	return nil
}

// List returns a page of active entries, most recently updated first.
func (r *PostgresIPBlacklistRepository) List(ctx context.Context, offset, limit int) ([]*models.BlacklistEntry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM ip_blacklist WHERE state = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, models.StateActive); err != nil {
		return nil, 0, fmt.Errorf("failed to count IP blacklist entries: %w", err)
	}

	query := `
		SELECT ` + blacklistColumns + `
		FROM ip_blacklist
		WHERE state = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	entries := []*models.BlacklistEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, models.StateActive, clampLimit(limit), offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list IP blacklist entries: %w", err)
	}

	return entries, total, nil
}

// clampLimit keeps page sizes within the configured bounds.
func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return limit
}
