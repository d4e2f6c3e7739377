package service

import (
	"fmt"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
)

// Rule keys reported by TimesheetValidator. They are returned to clients as
// the keys of error.details.
const (
	RuleBreakNegative            = "break_negative"
	RuleDurationNotPositive      = "duration_not_positive"
	RuleDurationExceedsDay       = "duration_exceeds_day"
	RuleDurationExceedsMaxShift  = "duration_exceeds_max_shift"
	RuleBreakExceedsHalfDuration = "break_exceeds_half_duration"
	RuleBreakExceedsDuration     = "break_exceeds_duration"
	RuleBreakWithoutShift        = "break_without_shift"
)

// Violation is a broken business rule.
type Violation struct {
	Rule    string
	Message string
}

// TimesheetValidator checks an entry against the timesheet business rules.
// Every rule is evaluated so a request learns about all of its problems at once.
type TimesheetValidator struct {
	maxShiftMinutes int
}

// NewTimesheetValidator creates a validator. A non-positive limit falls
// back to the default of 720 minutes.
func NewTimesheetValidator(maxShiftMinutes int) *TimesheetValidator {
	if maxShiftMinutes <= 0 {
		maxShiftMinutes = constants.DefaultMaxShiftMinutes
	}
	return &TimesheetValidator{maxShiftMinutes: maxShiftMinutes}
}

// Validate returns the violated rules; an empty result means the entry is valid.
func (v *TimesheetValidator) Validate(start, end *models.ClockTime, breakMinutes *int) []Violation {
	var violations []Violation
	add := func(rule, msg string) {
		violations = append(violations, Violation{Rule: rule, Message: msg})
	}

	brk := 0
	if breakMinutes != nil {
		brk = *breakMinutes
	}
	if brk < 0 {
		add(RuleBreakNegative, "Break must not be negative")
	}

	if start != nil && end != nil {
		duration := shiftDuration(*start, *end)
		if duration <= 0 {
			add(RuleDurationNotPositive, "Shift duration must be greater than zero")
		}
		if duration > constants.MinutesPerDay {
			add(RuleDurationExceedsDay, "Shift duration must not exceed 24 hours")
		}
		if duration > v.maxShiftMinutes {
			add(RuleDurationExceedsMaxShift,
				fmt.Sprintf("Shift duration must not exceed %d minutes", v.maxShiftMinutes))
		}
		if brk*2 > duration {
			add(RuleBreakExceedsHalfDuration, "Break must not exceed 50% of the shift duration")
		}
		if brk > duration {
			add(RuleBreakExceedsDuration, "Break must not exceed the shift duration")
		}
	} else if brk != 0 {
		add(RuleBreakWithoutShift, "A break requires both a start and an end time")
	}

	return violations
}

// ViolationDetails converts violations to the error.details map of the response envelope.
func ViolationDetails(violations []Violation) map[string]string {
	details := make(map[string]string, len(violations))
	for _, v := range violations {
		details[v.Rule] = v.Message
	}
	return details
}
