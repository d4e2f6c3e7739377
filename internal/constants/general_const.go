// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines the enumerations of the domain: record
// lifecycle states, user-agent rule match types, report job states and the
// names of live stream events.
package constants

// Record States define the lifecycle of soft-deletable rows.
// Every read path filters on the state column explicitly.
const (
	// StateActive marks a row that takes part in admission decisions.
	StateActive = "active"

	// StateDeleted marks a soft-deleted row. It can be reinstated.
	StateDeleted = "deleted"
)

// User-Agent Match Types define how a rule pattern is compared with the
// User-Agent header. All comparisons are case-insensitive.
const (
	// MatchTypeExact matches when the whole header equals the pattern.
	MatchTypeExact = "EXACT"

	// MatchTypePrefix matches when the header starts with the pattern.
	MatchTypePrefix = "PREFIX"

	// MatchTypeRegex matches when the pattern is found anywhere in the header.
	MatchTypeRegex = "REGEX"
)

// Report Job States define the lifecycle of an asynchronous report request.
const (
	ReportStatusPending = "PENDING"
	ReportStatusRunning = "RUNNING"
	ReportStatusDone    = "DONE"
	ReportStatusFailed  = "FAILED"
)

// Live Stream Events define the event names pushed to timesheet viewers.
const (
	// EventTimesheetUpdated is emitted after every committed timesheet write.
	EventTimesheetUpdated = "timesheet-updated"

	// EventHeartbeat is emitted periodically to keep idle streams alive.
	EventHeartbeat = "heartbeat"
)

// Time Formats define the wire formats of timesheet fields.
const (
	// ClockTimeLayout is the layout of start and end times.
	ClockTimeLayout = "15:04"

	// WorkDateLayout is the layout of work dates.
	WorkDateLayout = "2006-01-02"
)

// Health States reported by the /health endpoint.
const (
	StatusHealthy = "healthy"
	StatusUp      = "up"
	StatusDown    = "down"
)
