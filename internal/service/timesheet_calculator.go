package service

import (
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
)

// ComputeTimes derives the shift duration and the net working time.
//
// Both results are nil unless start and end are set. An end earlier than
// the start is read as the next day. A negative break counts as zero and
// working time never goes below zero. Upper bounds are left to the validator.
func ComputeTimes(start, end *models.ClockTime, breakMinutes *int) models.ComputedTimes {
	if start == nil || end == nil {
		return models.ComputedTimes{}
	}

	duration := shiftDuration(*start, *end)

	brk := 0
	if breakMinutes != nil && *breakMinutes > 0 {
		brk = *breakMinutes
	}
	working := max(duration-brk, 0)

	return models.ComputedTimes{
		DurationMinutes: &duration,
		WorkingMinutes:  &working,
	}
}

func shiftDuration(start, end models.ClockTime) int {
	d := end.Minutes() - start.Minutes()
	if d < 0 {
		d += constants.MinutesPerDay
	}
	return d
}
