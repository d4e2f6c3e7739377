// Package migrations provides a framework for database schema management.
//
// Executed migrations are tracked in a dedicated migrations table. Every
// migration is idempotent, so running the set against an existing database
// only creates what is missing.
package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/database"
)

// Migration represents a database migration.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table affected by this migration, used for existence checks
	TableName string
	// RunSQL executes the migration SQL within a transaction
	RunSQL func(ctx context.Context, tx *sqlx.Tx) error
}

// ColumnAddition adds a column to a table created by an earlier release.
type ColumnAddition struct {
	Table      string
	Column     string
	Definition string
}

// Migrator handles database migrations.
type Migrator struct {
	db *database.Pool
}

// NewMigrator creates a new migrator.
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db: db,
	}
}

// RunMigrations runs all pending database migrations.
// It creates the migrations table if it doesn't exist, runs every migration
// that has not been recorded yet and then adds columns introduced after the
// initial schema.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Msg("Running database migrations")
	startTime := time.Now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	executedMigrations, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrations := GetMigrations()
	migrationsRun := 0
	migrationsRecorded := 0

	for _, migration := range migrations {
		if executedMigrations[migration.Name] {
			continue
		}

		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		if exists {
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")

			if err := m.recordMigration(ctx, migration.Name, migration.Description); err != nil {
				return err
			}
			migrationsRecorded++
			continue
		}

		log.Info().
			Str("migration", migration.Name).
			Str("table", migration.TableName).
			Msg("Running migration")

		if err := m.runMigration(ctx, migration); err != nil {
			return err
		}
		migrationsRun++
	}

	for _, addition := range GetColumnAdditions() {
		if err := m.ensureColumn(ctx, addition); err != nil {
			return err
		}
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("migrations_recorded", migrationsRecorded).
		Int("total_migrations", len(migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

// createMigrationsTable creates the migrations table if it doesn't exist.
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns the names of all recorded migrations.
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	var names []string
	if err := m.db.SelectContext(ctx, &names, `SELECT name FROM migrations`); err != nil {
		return nil, err
	}

	migrations := make(map[string]bool, len(names))
	for _, name := range names {
		migrations[name] = true
	}
	return migrations, nil
}

// runMigration runs a migration and records it within one transaction.
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := migration.RunSQL(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		query := `INSERT INTO migrations (name, description) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, migration.Name, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}

		return nil
	})
}

// recordMigration records a migration as completed without running the SQL.
func (m *Migrator) recordMigration(ctx context.Context, name, description string) error {
	query := `INSERT INTO migrations (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := m.db.ExecContext(ctx, query, name, description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the current database schema.
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_name = $1)
	`
	var exists bool
	err := m.db.GetContext(ctx, &exists, query, tableName)
	return exists, err
}

// ensureColumn adds a column when an older schema lacks it.
func (m *Migrator) ensureColumn(ctx context.Context, addition ColumnAddition) error {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			AND table_name = $1
			AND column_name = $2
		)
	`
	var columnExists bool
	if err := m.db.GetContext(ctx, &columnExists, query, addition.Table, addition.Column); err != nil {
		return fmt.Errorf("failed to check if %s.%s exists: %w", addition.Table, addition.Column, err)
	}
	if columnExists {
		return nil
	}

	log.Info().
		Str("table", addition.Table).
		Str("column", addition.Column).
		Msg("Adding missing column")

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", addition.Table, addition.Column, addition.Definition)
	if _, err := m.db.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", addition.Table, addition.Column, err)
	}
	return nil
}

// GetMigrations returns all migrations in execution order.
func GetMigrations() []Migration {
	return []Migration{
		createUsersTable(),
		createIPWhitelistTable(),
		createIPBlacklistTable(),
		createUABlacklistTable(),
		createAccessLogTable(),
		createTimesheetEntriesTable(),
		createReportJobsTable(),
	}
}

// GetColumnAdditions returns the columns added after the initial schema.
func GetColumnAdditions() []ColumnAddition {
	return []ColumnAddition{
		{Table: "ip_blacklist", Column: "reason", Definition: "VARCHAR(32) NOT NULL DEFAULT 'deny-list'"},
		{Table: "timesheet_entries", Column: "version", Definition: "BIGINT NOT NULL DEFAULT 1"},
		{Table: "access_log", Column: "username", Definition: "VARCHAR(50)"},
	}
}
