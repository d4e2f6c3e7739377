package repository

import (
	"context"
	"fmt"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// UARuleRepository defines methods for managing user-agent blacklist rules.
type UARuleRepository interface {
	// Create stores a new active rule.
	Create(ctx context.Context, rule *models.UARule) (*models.UARule, error)

	// ListActive returns every active rule in creation order.
	ListActive(ctx context.Context) ([]*models.UARule, error)

	// SoftDelete moves a rule to the deleted state.
	SoftDelete(ctx context.Context, id int64) error
}

// PostgresUARuleRepository is an implementation of UARuleRepository for PostgreSQL.
type PostgresUARuleRepository struct {
	db database.Querier
}

// NewUARuleRepository creates a new UARuleRepository for PostgreSQL.
func NewUARuleRepository(db *database.Pool) UARuleRepository {
	return &PostgresUARuleRepository{
		db: db,
	}
}

// Create stores a new active rule.
func (r *PostgresUARuleRepository) Create(ctx context.Context, rule *models.UARule) (*models.UARule, error) {
	query := `
		INSERT INTO ua_blacklist (pattern, match_type, state, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, state, created_at
	`

	rule.State = models.StateActive
	err := r.db.QueryRowxContext(ctx, query, rule.Pattern, rule.MatchType, rule.State).
		Scan(&rule.ID, &rule.State, &rule.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user agent rule: %w", err)
	}

	return rule, nil
}

// ListActive returns every active rule in creation order.
func (r *PostgresUARuleRepository) ListActive(ctx context.Context) ([]*models.UARule, error) {
	query := `
		SELECT id, pattern, match_type, state, created_at
		FROM ua_blacklist
		WHERE state = $1
		ORDER BY id
	`

	rules := []*models.UARule{}
	if err := r.db.SelectContext(ctx, &rules, query, models.StateActive); err != nil {
		return nil, fmt.Errorf("failed to list user agent rules: %w", err)
	}
	return rules, nil
}

// SoftDelete moves an active rule to the deleted state.
func (r *PostgresUARuleRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE ua_blacklist SET state = $1 WHERE id = $2 AND state = $3`

	result, err := r.db.ExecContext(ctx, query, models.StateDeleted, id, models.StateActive)
	if err != nil {
		return fmt.Errorf("failed to delete user agent rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User agent rule", id)
	}

	return nil
}
