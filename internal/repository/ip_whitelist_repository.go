package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
)

// IPWhitelistRepository defines methods for the table of addresses the
// admission pipeline has seen. Rows are never deleted.
type IPWhitelistRepository interface {
	// EnsureTracked inserts the address if it is not present. Idempotent.
	EnsureTracked(ctx context.Context, ip string) error

	// MarkBlocked flags the address as blacklisted and increments its
	// counter, inserting the row when it does not exist yet.
	MarkBlocked(ctx context.Context, ip string) error

	// List returns a page of rows and the total row count.
	List(ctx context.Context, offset, limit int) ([]*models.WhitelistEntry, int, error)

	// Reconcile aligns the whitelist with the blacklist and returns the
	// number of rows changed. Running it twice changes nothing the second time.
	Reconcile(ctx context.Context) (int64, error)
}

// PostgresIPWhitelistRepository is an implementation of IPWhitelistRepository for PostgreSQL.
type PostgresIPWhitelistRepository struct {
	db *database.Pool
}

// NewIPWhitelistRepository creates a new IPWhitelistRepository for PostgreSQL.
func NewIPWhitelistRepository(db *database.Pool) IPWhitelistRepository {
	return &PostgresIPWhitelistRepository{
		db: db,
	}
}

// EnsureTracked inserts the address if it is not present.
func (r *PostgresIPWhitelistRepository) EnsureTracked(ctx context.Context, ip string) error {
	query := `
		INSERT INTO ip_whitelist (ip_address, first_seen_at, blacklisted, blacklisted_count)
		VALUES ($1, now(), FALSE, 0)
		ON CONFLICT (ip_address) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, ip); err != nil {
		return fmt.Errorf("failed to track IP address: %w", err)
	}
	return nil
}

// MarkBlocked flags the address as blacklisted and increments its counter.
func (r *PostgresIPWhitelistRepository) MarkBlocked(ctx context.Context, ip string) error {
	query := `
		INSERT INTO ip_whitelist (ip_address, first_seen_at, blacklisted, blacklisted_count)
		VALUES ($1, now(), TRUE, 1)
		ON CONFLICT (ip_address) DO UPDATE
		SET blacklisted = TRUE,
			blacklisted_count = ip_whitelist.blacklisted_count + 1
	`
	if _, err := r.db.ExecContext(ctx, query, ip); err != nil {
		return fmt.Errorf("failed to mark IP address as blocked: %w", err)
	}
	return nil
}

// List returns a page of rows, most recently seen first.
func (r *PostgresIPWhitelistRepository) List(ctx context.Context, offset, limit int) ([]*models.WhitelistEntry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ip_whitelist`); err != nil {
		return nil, 0, fmt.Errorf("failed to count IP whitelist entries: %w", err)
	}

	query := `
		SELECT id, ip_address, first_seen_at, blacklisted, blacklisted_count
		FROM ip_whitelist
		ORDER BY first_seen_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	entries := []*models.WhitelistEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, clampLimit(limit), offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list IP whitelist entries: %w", err)
	}

	return entries, total, nil
}

// Reconcile repairs drift left by a partially failed dual write. Addresses on
// the blacklist get a whitelist row, the blacklisted flag and a counter of at
// least the blacklist's times.
func (r *PostgresIPWhitelistRepository) Reconcile(ctx context.Context) (int64, error) {
	var changed int64

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO ip_whitelist (ip_address, first_seen_at, blacklisted, blacklisted_count)
			SELECT b.ip_address, b.created_at, TRUE, b.times
			FROM ip_blacklist b
			ON CONFLICT (ip_address) DO NOTHING
		`
		result, err := tx.ExecContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to insert missing whitelist rows: %w", err)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		update := `
			UPDATE ip_whitelist w
			SET blacklisted = TRUE,
				blacklisted_count = GREATEST(w.blacklisted_count, b.times)
			FROM ip_blacklist b
			WHERE b.ip_address = w.ip_address
			AND (w.blacklisted = FALSE OR w.blacklisted_count < b.times)
		`
		result, err = tx.ExecContext(ctx, update)
		if err != nil {
			return fmt.Errorf("failed to reconcile whitelist rows: %w", err)
		}
		updated, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		changed = inserted + updated
		return nil
	})
	if err != nil {
		return 0, err
	}

	return changed, nil
}
