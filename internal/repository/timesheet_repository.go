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

// ErrVersionMismatch is returned by UpdateIfVersion when another writer
// changed the row first.
var ErrVersionMismatch = errors.New("timesheet entry version mismatch")

// TimesheetRepository defines methods for timesheet entries. The pair
// (user_name, work_date) is unique and every write bumps version.
type TimesheetRepository interface {
	// GetByUserAndDate returns the entry or a NotFound error.
	GetByUserAndDate(ctx context.Context, username string, date models.WorkDate) (*models.TimesheetEntry, error)

	// GetByID returns the entry or a NotFound error.
	GetByID(ctx context.Context, id int64) (*models.TimesheetEntry, error)

	// Insert creates the entry with version 1. A concurrent insert for the
	// same user and date fails with a unique violation.
	Insert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error)

	// UpdateIfVersion writes the entry only if the stored version still
	// equals expectedVersion. Returns ErrVersionMismatch otherwise.
	UpdateIfVersion(ctx context.Context, entry *models.TimesheetEntry, expectedVersion int64) (*models.TimesheetEntry, error)

	// Upsert writes the entry unconditionally, inserting it if needed.
	Upsert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error)

	// ListRange returns the user's entries between from and to inclusive, by date.
	ListRange(ctx context.Context, username string, from, to models.WorkDate) ([]*models.TimesheetEntry, error)
}

// PostgresTimesheetRepository is an implementation of TimesheetRepository for PostgreSQL.
type PostgresTimesheetRepository struct {
	db database.Querier
}

// NewTimesheetRepository creates a new TimesheetRepository for PostgreSQL.
func NewTimesheetRepository(db *database.Pool) TimesheetRepository {
	return &PostgresTimesheetRepository{
		db: db,
	}
}

const timesheetColumns = `id, work_date, user_name, start_time, end_time, break_minutes,
	duration_minutes, working_minutes, holiday_work, note, version, created_at, updated_at`

// GetByUserAndDate returns the entry for the user and date.
func (r *PostgresTimesheetRepository) GetByUserAndDate(ctx context.Context, username string, date models.WorkDate) (*models.TimesheetEntry, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheet_entries WHERE user_name = $1 AND work_date = $2`

	entry := &models.TimesheetEntry{}
	if err := r.db.GetContext(ctx, entry, query, username, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Timesheet entry", date)
		}
		return nil, fmt.Errorf("failed to get timesheet entry: %w", err)
	}
	return entry, nil
}

// GetByID returns the entry with the given ID.
func (r *PostgresTimesheetRepository) GetByID(ctx context.Context, id int64) (*models.TimesheetEntry, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheet_entries WHERE id = $1`

	entry := &models.TimesheetEntry{}
	if err := r.db.GetContext(ctx, entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Timesheet entry", id)
		}
		return nil, fmt.Errorf("failed to get timesheet entry: %w", err)
	}
	return entry, nil
}

// Insert creates the entry with version 1.
func (r *PostgresTimesheetRepository) Insert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error) {
	query := `
		INSERT INTO timesheet_entries (
			work_date, user_name, start_time, end_time, break_minutes,
			duration_minutes, working_minutes, holiday_work, note, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, now(), now())
		RETURNING ` + timesheetColumns

	saved := &models.TimesheetEntry{}
	err := r.db.GetContext(ctx, saved, query,
		entry.WorkDate, entry.UserName, entry.StartTime, entry.EndTime, entry.BreakMinutes,
		entry.DurationMinutes, entry.WorkingMinutes, entry.HolidayWork, entry.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert timesheet entry: %w", err)
	}
	return saved, nil
}

// UpdateIfVersion writes the entry only if the stored version is unchanged.
func (r *PostgresTimesheetRepository) UpdateIfVersion(ctx context.Context, entry *models.TimesheetEntry, expectedVersion int64) (*models.TimesheetEntry, error) {
	query := `
		UPDATE timesheet_entries
		SET start_time = $1, end_time = $2, break_minutes = $3,
			duration_minutes = $4, working_minutes = $5, holiday_work = $6, note = $7,
			version = version + 1, updated_at = now()
		WHERE id = $8 AND version = $9
		RETURNING ` + timesheetColumns

	saved := &models.TimesheetEntry{}
	err := r.db.GetContext(ctx, saved, query,
		entry.StartTime, entry.EndTime, entry.BreakMinutes,
		entry.DurationMinutes, entry.WorkingMinutes, entry.HolidayWork, entry.Note,
		entry.ID, expectedVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionMismatch
		}
		return nil, fmt.Errorf("failed to update timesheet entry: %w", err)
	}
	return saved, nil
}

// Upsert writes the entry unconditionally.
func (r *PostgresTimesheetRepository) Upsert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error) {
	query := `
		INSERT INTO timesheet_entries (
			work_date, user_name, start_time, end_time, break_minutes,
			duration_minutes, working_minutes, holiday_work, note, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, now(), now())
		ON CONFLICT ON CONSTRAINT ` + constants.IndexTimesheetUserDate + ` DO UPDATE
		SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			break_minutes = EXCLUDED.break_minutes, duration_minutes = EXCLUDED.duration_minutes,
			working_minutes = EXCLUDED.working_minutes, holiday_work = EXCLUDED.holiday_work,
			note = EXCLUDED.note, version = timesheet_entries.version + 1, updated_at = now()
		RETURNING ` + timesheetColumns

	saved := &models.TimesheetEntry{}
	err := r.db.GetContext(ctx, saved, query,
		entry.WorkDate, entry.UserName, entry.StartTime, entry.EndTime, entry.BreakMinutes,
		entry.DurationMinutes, entry.WorkingMinutes, entry.HolidayWork, entry.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite timesheet entry: %w", err)
	}
	return saved, nil
}

// ListRange returns the user's entries between from and to inclusive.
func (r *PostgresTimesheetRepository) ListRange(ctx context.Context, username string, from, to models.WorkDate) ([]*models.TimesheetEntry, error) {
	query := `
		SELECT ` + timesheetColumns + `
		FROM timesheet_entries
		WHERE user_name = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date
	`

	entries := []*models.TimesheetEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, username, from, to); err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	return entries, nil
}
