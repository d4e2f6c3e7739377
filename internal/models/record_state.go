package models

import "github.com/yasinhessnawi1/timeguard/internal/constants"

// RecordState is the lifecycle state of a soft-deletable row.
type RecordState string

const (
	// StateActive rows take part in admission decisions.
	StateActive RecordState = constants.StateActive
	// StateDeleted rows are kept for history and can be reinstated.
	StateDeleted RecordState = constants.StateDeleted
)

// IsActive reports whether the row is in the active state.
func (s RecordState) IsActive() bool {
	return s == StateActive
}
