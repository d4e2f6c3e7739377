package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/broadcast"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/metrics"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// EventPublisher delivers committed changes to live viewers.
type EventPublisher interface {
	Publish(ev broadcast.Event) int
}

// errWriteConflict marks a write that lost a race with another writer.
var errWriteConflict = errors.New("timesheet write conflict")

// TimesheetService stores timesheet entries with optimistic concurrency.
//
// Each (user, date) entry carries a version. A write that finds the version
// moved on fails with a conflict unless the request sets force, in which
// case the entry is re-read and overwritten.
type TimesheetService struct {
	repo      repository.TimesheetRepository
	validator *TimesheetValidator
	publisher EventPublisher
	now       func() time.Time
}

// NewTimesheetService creates a new TimesheetService.
func NewTimesheetService(repo repository.TimesheetRepository, validator *TimesheetValidator, publisher EventPublisher) *TimesheetService {
	return &TimesheetService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// SaveOrUpdate merges the supplied fields into the user's entry for the
// request date, recomputes the derived minutes, validates and stores it.
//
// Returns:
//   - The stored entry
//   - A validation error listing violated rules
//   - A conflict error when another writer got there first and force is not set
func (s *TimesheetService) SaveOrUpdate(ctx context.Context, username string, req *models.TimesheetEntryRequest) (*models.TimesheetEntry, error) {
	existing, err := s.load(ctx, username, req.WorkDate)
	if err != nil {
		return nil, err
	}

	saved, err := s.write(ctx, username, req, existing)
	forced := false
	if errors.Is(err, errWriteConflict) {
		if !req.Force {
			metrics.TimesheetWrites.WithLabelValues(metrics.OutcomeConflict).Inc()
			log.Info().
				Str("category", constants.LogCategoryTimesheet).
				Str("username", username).
				Str("work_date", req.WorkDate.String()).
				Msg("Timesheet write conflict")
			return nil, utils.NewConflictError(constants.MsgTimesheetConflict, map[string]any{
				"workDate": req.WorkDate,
			})
		}
		forced = true
		saved, err = s.overwrite(ctx, username, req)
	}
	if err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeSaved
	if forced {
		outcome = metrics.OutcomeForced
	}
	metrics.TimesheetWrites.WithLabelValues(outcome).Inc()

	log.Info().
		Str("category", constants.LogCategoryTimesheet).
		Str("username", username).
		Str("work_date", saved.WorkDate.String()).
		Int64("version", saved.Version).
		Bool("forced", forced).
		Msg("Timesheet entry saved")

	s.publisher.Publish(broadcast.Event{
		Name: constants.EventTimesheetUpdated,
		Data: models.TimesheetEvent{Entry: saved, Forced: forced},
	})
	return saved, nil
}

// write performs the conditional write. It returns errWriteConflict when the
// row was created or changed concurrently.
func (s *TimesheetService) write(ctx context.Context, username string, req *models.TimesheetEntryRequest, existing *models.TimesheetEntry) (*models.TimesheetEntry, error) {
	entry, err := s.prepare(username, existing, req)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		saved, err := s.repo.Insert(ctx, entry)
		if utils.IsUniqueViolation(err, constants.IndexTimesheetUserDate) {
			return nil, errWriteConflict
		}
		return saved, err
	}

	// The client may assert which version it edited.
	if req.Version != nil && *req.Version != existing.Version {
		return nil, errWriteConflict
	}

	saved, err := s.repo.UpdateIfVersion(ctx, entry, existing.Version)
	if errors.Is(err, repository.ErrVersionMismatch) {
		return nil, errWriteConflict
	}
	return saved, err
}

// overwrite re-reads the entry, re-applies the request and writes it unconditionally.
func (s *TimesheetService) overwrite(ctx context.Context, username string, req *models.TimesheetEntryRequest) (*models.TimesheetEntry, error) {
	current, err := s.load(ctx, username, req.WorkDate)
	if err != nil {
		return nil, err
	}
	entry, err := s.prepare(username, current, req)
	if err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, entry)
}

// load returns the stored entry or nil when there is none.
func (s *TimesheetService) load(ctx context.Context, username string, date models.WorkDate) (*models.TimesheetEntry, error) {
	existing, err := s.repo.GetByUserAndDate(ctx, username, date)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}

// prepare merges req into base, recomputes and validates. base is not modified.
func (s *TimesheetService) prepare(username string, base *models.TimesheetEntry, req *models.TimesheetEntryRequest) (*models.TimesheetEntry, error) {
	entry := &models.TimesheetEntry{WorkDate: req.WorkDate, UserName: username}
	if base != nil {
		entry = base.Clone()
	}

	if err := mergeRequest(entry, req); err != nil {
		return nil, err
	}

	computed := ComputeTimes(entry.StartTime, entry.EndTime, entry.BreakMinutes)
	entry.DurationMinutes = computed.DurationMinutes
	entry.WorkingMinutes = computed.WorkingMinutes

	if violations := s.validator.Validate(entry.StartTime, entry.EndTime, entry.BreakMinutes); len(violations) > 0 {
		metrics.TimesheetWrites.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, utils.NewRuleViolationError(constants.MsgTimesheetInvalid, ViolationDetails(violations))
	}
	return entry, nil
}

// mergeRequest applies the fields present in req. Absent fields keep their
// value; null clears. A forced request that empties start, end and break
// clears the whole shift.
func mergeRequest(entry *models.TimesheetEntry, req *models.TimesheetEntryRequest) error {
	if req.Force && req.ClearsShift() {
		entry.StartTime = nil
		entry.EndTime = nil
		entry.BreakMinutes = nil
	} else {
		var err error
		if entry.StartTime, err = mergeClock(entry.StartTime, req.StartTime, "startTime"); err != nil {
			return err
		}
		if entry.EndTime, err = mergeClock(entry.EndTime, req.EndTime, "endTime"); err != nil {
			return err
		}
		if req.BreakMinutes.Set {
			entry.BreakMinutes = req.BreakMinutes.Ptr()
		}
	}

	if req.HolidayWork.Set {
		entry.HolidayWork = req.HolidayWork.Valid && req.HolidayWork.Value
	}
	if req.Note.Set {
		entry.Note = nil
		if note := req.Note.Ptr(); note != nil && strings.TrimSpace(*note) != "" {
			entry.Note = note
		}
	}
	return nil
}

func mergeClock(current *models.ClockTime, field models.Optional[string], name string) (*models.ClockTime, error) {
	if !field.Set {
		return current, nil
	}
	if !field.Valid || strings.TrimSpace(field.Value) == "" {
		return nil, nil
	}
	parsed, err := models.ParseClockTime(field.Value)
	if err != nil {
		return nil, utils.NewValidationError(name, "must be a time in HH:MM format")
	}
	return &parsed, nil
}

// GetEntry returns the user's entry for one date.
func (s *TimesheetService) GetEntry(ctx context.Context, username string, date models.WorkDate) (*models.TimesheetEntry, error) {
	return s.repo.GetByUserAndDate(ctx, username, date)
}

// GetEntries returns the user's entries between from and to inclusive.
// Empty bounds default to the current month.
func (s *TimesheetService) GetEntries(ctx context.Context, username, from, to string) ([]*models.TimesheetEntry, error) {
	fromDate, toDate, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListRange(ctx, username, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	return entries, nil
}

func (s *TimesheetService) resolveRange(from, to string) (models.WorkDate, models.WorkDate, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	fromDate := models.NewWorkDate(monthStart)
	toDate := models.NewWorkDate(monthStart.AddDate(0, 1, -1))

	var err error
	if from != "" {
		if fromDate, err = models.ParseWorkDate(from); err != nil {
			return "", "", utils.NewValidationError(constants.QueryParamFrom, "must be a date in YYYY-MM-DD format")
		}
	}
	if to != "" {
		if toDate, err = models.ParseWorkDate(to); err != nil {
			return "", "", utils.NewValidationError(constants.QueryParamTo, "must be a date in YYYY-MM-DD format")
		}
	}
	// ISO dates compare correctly as strings.
	if fromDate > toDate {
		return "", "", utils.NewValidationError(constants.QueryParamFrom, "must not be after to")
	}
	return fromDate, toDate, nil
}
