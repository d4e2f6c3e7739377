package models

import (
	"time"
)

// TimesheetEntry is one user's record for one work date. The pair
// (UserName, WorkDate) is unique. DurationMinutes and WorkingMinutes are
// derived from StartTime, EndTime and BreakMinutes on every write.
type TimesheetEntry struct {
	ID              int64      `json:"id" db:"id"`
	WorkDate        WorkDate   `json:"workDate" db:"work_date"`
	UserName        string     `json:"userName" db:"user_name"`
	StartTime       *ClockTime `json:"startTime" db:"start_time"`
	EndTime         *ClockTime `json:"endTime" db:"end_time"`
	BreakMinutes    *int       `json:"breakMinutes" db:"break_minutes"`
	DurationMinutes *int       `json:"durationMinutes" db:"duration_minutes"`
	WorkingMinutes  *int       `json:"workingMinutes" db:"working_minutes"`
	HolidayWork     bool       `json:"holidayWork" db:"holiday_work"`
	Note            *string    `json:"note" db:"note"`
	Version         int64      `json:"version" db:"version"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsCleared reports whether the entry carries no shift data.
func (e *TimesheetEntry) IsCleared() bool {
	return e.StartTime == nil && e.EndTime == nil && e.BreakMinutes == nil
}

// Clone returns a deep copy of the entry.
func (e *TimesheetEntry) Clone() *TimesheetEntry {
	c := *e
	c.StartTime = clonePtr(e.StartTime)
	c.EndTime = clonePtr(e.EndTime)
	c.BreakMinutes = clonePtr(e.BreakMinutes)
	c.DurationMinutes = clonePtr(e.DurationMinutes)
	c.WorkingMinutes = clonePtr(e.WorkingMinutes)
	c.Note = clonePtr(e.Note)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ComputedTimes holds the derived fields of an entry. Both are nil when the
// shift is incomplete.
type ComputedTimes struct {
	DurationMinutes *int `json:"durationMinutes"`
	WorkingMinutes  *int `json:"workingMinutes"`
}

// TimesheetEntryRequest is the body of POST /timesheet/api/entry.
// Absent fields keep their stored value; null (or "" for times) clears them.
type TimesheetEntryRequest struct {
	WorkDate     WorkDate         `json:"workDate" validate:"required,workdate"`
	StartTime    Optional[string] `json:"startTime" validate:"omitempty,clocktime"`
	EndTime      Optional[string] `json:"endTime" validate:"omitempty,clocktime"`
	BreakMinutes Optional[int]    `json:"breakMinutes"`
	HolidayWork  Optional[bool]   `json:"holidayWork"`
	Note         Optional[string] `json:"note" validate:"omitempty,max=1000"`
	Force        bool             `json:"force"`
	Version      *int64           `json:"version,omitempty" validate:"omitempty,min=0"`
}

// ClearsShift reports whether the request explicitly empties the shift:
// start and end are cleared and break is cleared or left out.
func (r *TimesheetEntryRequest) ClearsShift() bool {
	breakCleared := !r.BreakMinutes.Set || !r.BreakMinutes.Valid
	return isCleared(r.StartTime) && isCleared(r.EndTime) && breakCleared
}

func isCleared(o Optional[string]) bool {
	return o.Set && (!o.Valid || o.Value == "")
}

// TimesheetEvent is the payload broadcast to live viewers after a write.
type TimesheetEvent struct {
	Entry  *TimesheetEntry `json:"entry"`
	Forced bool            `json:"forced"`
}
