package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// execAll runs the statements in order and stops at the first error.
func execAll(ctx context.Context, tx *sqlx.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createUsersTable creates the users table
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   constants.TableUsers,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					salt VARCHAR(255) NOT NULL,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					CONSTRAINT idx_username UNIQUE (username)
				)
			`)
		},
	}
}

// createIPWhitelistTable creates the table of every address the pipeline has seen.
func createIPWhitelistTable() Migration {
	return Migration{
		Name:        "create_ip_whitelist_table",
		Description: "Creates the ip_whitelist table",
		TableName:   constants.TableIPWhitelist,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS ip_whitelist (
					id BIGSERIAL PRIMARY KEY,
					ip_address VARCHAR(45) NOT NULL,
					first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
					blacklisted_count INTEGER NOT NULL DEFAULT 0,
					CONSTRAINT idx_ip_whitelist_address UNIQUE (ip_address)
				)
			`)
		},
	}
}

// createIPBlacklistTable creates the deny list
func createIPBlacklistTable() Migration {
	return Migration{
		Name:        "create_ip_blacklist_table",
		Description: "Creates the ip_blacklist table",
		TableName:   constants.TableIPBlacklist,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS ip_blacklist (
					id BIGSERIAL PRIMARY KEY,
					ip_address VARCHAR(45) NOT NULL,
					state VARCHAR(16) NOT NULL DEFAULT 'active',
					times INTEGER NOT NULL DEFAULT 1,
					reason VARCHAR(32) NOT NULL DEFAULT 'deny-list',
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					CONSTRAINT idx_ip_blacklist_address UNIQUE (ip_address),
					CONSTRAINT chk_ip_blacklist_state CHECK (state IN ('active', 'deleted'))
				)
			`,
				`CREATE INDEX IF NOT EXISTS idx_ip_blacklist_state ON ip_blacklist(state)`,
			)
		},
	}
}

// createUABlacklistTable creates the user-agent rule table
func createUABlacklistTable() Migration {
	return Migration{
		Name:        "create_ua_blacklist_table",
		Description: "Creates the ua_blacklist table",
		TableName:   constants.TableUABlacklist,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS ua_blacklist (
					id BIGSERIAL PRIMARY KEY,
					pattern VARCHAR(512) NOT NULL,
					match_type VARCHAR(8) NOT NULL,
					state VARCHAR(16) NOT NULL DEFAULT 'active',
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					CONSTRAINT chk_ua_match_type CHECK (match_type IN ('EXACT', 'PREFIX', 'REGEX')),
					CONSTRAINT chk_ua_state CHECK (state IN ('active', 'deleted'))
				)
			`)
		},
	}
}

// createAccessLogTable creates the append-only request audit table
func createAccessLogTable() Migration {
	return Migration{
		Name:        "create_access_log_table",
		Description: "Creates the access_log table",
		TableName:   constants.TableAccessLog,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS access_log (
					id BIGSERIAL PRIMARY KEY,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					request_id VARCHAR(64) NOT NULL,
					method VARCHAR(16) NOT NULL,
					path TEXT NOT NULL,
					query TEXT,
					status INTEGER NOT NULL,
					duration_ms BIGINT NOT NULL,
					remote_ip VARCHAR(45) NOT NULL,
					user_agent TEXT,
					referer TEXT,
					username VARCHAR(50),
					request_bytes BIGINT NOT NULL DEFAULT 0,
					response_bytes BIGINT NOT NULL DEFAULT 0
				)
			`,
				`CREATE INDEX IF NOT EXISTS idx_access_log_created_at ON access_log(created_at)`,
			)
		},
	}
}

// createTimesheetEntriesTable creates the timesheet table. (user_name, work_date)
// is the serialization point for concurrent writers.
func createTimesheetEntriesTable() Migration {
	return Migration{
		Name:        "create_timesheet_entries_table",
		Description: "Creates the timesheet_entries table",
		TableName:   constants.TableTimesheetEntries,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS timesheet_entries (
					id BIGSERIAL PRIMARY KEY,
					work_date DATE NOT NULL,
					user_name VARCHAR(50) NOT NULL,
					start_time TIME,
					end_time TIME,
					break_minutes INTEGER,
					duration_minutes INTEGER,
					working_minutes INTEGER,
					holiday_work BOOLEAN NOT NULL DEFAULT FALSE,
					note VARCHAR(1000),
					version BIGINT NOT NULL DEFAULT 1,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					CONSTRAINT idx_timesheet_user_date UNIQUE (user_name, work_date)
				)
			`)
		},
	}
}

// createReportJobsTable creates the report job table
func createReportJobsTable() Migration {
	return Migration{
		Name:        "create_report_jobs_table",
		Description: "Creates the report_jobs table",
		TableName:   constants.TableReportJobs,
		RunSQL: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS report_jobs (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					from_date DATE NOT NULL,
					to_date DATE NOT NULL,
					format VARCHAR(8) NOT NULL,
					status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
					file_path TEXT,
					error_message TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)
			`,
				`CREATE INDEX IF NOT EXISTS idx_report_jobs_username ON report_jobs(username)`,
			)
		},
	}
}
