package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// UserRepository defines methods for interacting with user data
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error
}

// PostgresUserRepository is a PostgreSQL implementation of UserRepository
type PostgresUserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Pool) UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// Create adds a new user to the database
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	query := `
		INSERT INTO users (username, password_hash, salt, is_admin, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.Salt, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt)

	utils.LogDBQuery(query, []interface{}{user.Username, user.PasswordHash, user.Salt, user.IsAdmin}, time.Since(startTime), err)

	if err != nil {
		if utils.IsUniqueViolation(err, "username") {
			return utils.NewDuplicateError("User", "username", user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Bool("is_admin", user.IsAdmin).
		Msg("User created")

	return nil
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	startTime := time.Now()

	query := `
		SELECT id, username, password_hash, salt, is_admin, created_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, username)

	utils.LogDBQuery(query, []interface{}{username}, time.Since(startTime), ignoreNoRows(err))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", username)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// ChangePassword updates a user's password
func (r *PostgresUserRepository) ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	startTime := time.Now()

	query := `UPDATE users SET password_hash = $1, salt = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, salt, id)

	utils.LogDBQuery(query, []interface{}{passwordHash, salt, id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User", id)
	}

	log.Info().Int64("user_id", id).Msg("User password changed")
	return nil
}

// ignoreNoRows hides sql.ErrNoRows from query logging; a missing row is not a failure.
func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
