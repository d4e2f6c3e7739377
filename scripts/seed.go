// Package scripts provides database seeding.
//
// Seeds work like migrations: each one runs once inside a transaction and is
// recorded in the seeds table, so seeding is safe to repeat on every start.
package scripts

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
)

// DefaultUARules are the scanner user agents blocked on a fresh install.
var DefaultUARules = []models.UARule{
	{Pattern: "sqlmap/", MatchType: models.MatchPrefix},
	{Pattern: "masscan/", MatchType: models.MatchPrefix},
	{Pattern: "zgrab/", MatchType: models.MatchPrefix},
	{Pattern: "(?i)nikto", MatchType: models.MatchRegex},
	{Pattern: "(?i)nuclei", MatchType: models.MatchRegex},
}

type seed struct {
	name string
	run  func(ctx context.Context, tx *sqlx.Tx) error
}

// Seeder handles database seeding.
type Seeder struct {
	db    *database.Pool
	seeds []seed
}

// NewSeeder creates a new seeder.
func NewSeeder(db *database.Pool) *Seeder {
	s := &Seeder{db: db}
	s.seeds = []seed{
		{name: "default_ua_rules", run: s.seedUARules},
	}
	return s
}

// SeedDatabase runs every seed that has not been recorded yet.
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := time.Now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executed, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	for _, sd := range s.seeds {
		if executed[sd.name] {
			log.Debug().Str("seed", sd.name).Msg("Seed already executed")
			continue
		}
		log.Info().Str("seed", sd.name).Msg("Running seed")
		if err := s.runSeed(ctx, sd); err != nil {
			return err
		}
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database seeding completed")
	return nil
}

func (s *Seeder) createSeedsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS seeds (
			name VARCHAR(255) PRIMARY KEY,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM seeds`); err != nil {
		return nil, err
	}

	executed := make(map[string]bool, len(names))
	for _, name := range names {
		executed[name] = true
	}
	return executed, nil
}

// runSeed runs one seed and records it in the same transaction.
func (s *Seeder) runSeed(ctx context.Context, sd seed) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := sd.run(ctx, tx); err != nil {
			return fmt.Errorf("seed %s failed: %w", sd.name, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO seeds (name) VALUES ($1)`, sd.name); err != nil {
			return fmt.Errorf("failed to record seed: %w", err)
		}
		return nil
	})
}

// seedUARules inserts the default user-agent rules that are not already
// present as active rules.
func (s *Seeder) seedUARules(ctx context.Context, tx *sqlx.Tx) error {
	inserted := 0
	for _, rule := range DefaultUARules {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO ua_blacklist (pattern, match_type)
			SELECT $1, $2
			WHERE NOT EXISTS (
				SELECT 1 FROM ua_blacklist WHERE pattern = $1 AND match_type = $2 AND state = 'active'
			)
		`, rule.Pattern, string(rule.MatchType))
		if err != nil {
			return fmt.Errorf("failed to insert user-agent rule %q: %w", rule.Pattern, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	log.Info().
		Int("default_rules", len(DefaultUARules)).
		Int("inserted_rules", inserted).
		Msg("User-agent rule seeding completed")
	return nil
}
