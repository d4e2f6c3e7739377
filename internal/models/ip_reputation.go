// Package models provides data structures representing entities in the application.
package models

import (
	"time"
)

// WhitelistEntry records the first sighting of an IP address and how often it
// was blocked afterwards. Rows are never physically deleted.
type WhitelistEntry struct {
	// ID is the unique identifier of the row
	ID int64 `json:"id" db:"id"`

	// IPAddress is the client address, unique across the table
	IPAddress string `json:"ipAddress" db:"ip_address"`

	// FirstSeenAt is when the address first passed the admission pipeline
	FirstSeenAt time.Time `json:"firstSeenAt" db:"first_seen_at"`

	// Blacklisted is set once the address has been blocked at least once
	Blacklisted bool `json:"blacklisted" db:"blacklisted"`

	// BlacklistedCount is the cumulative number of block events
	BlacklistedCount int `json:"blacklistedCount" db:"blacklisted_count"`
}

// BlacklistEntry is a deny-listed IP address.
// Deleting an entry moves it to StateDeleted; a later block reinstates it.
type BlacklistEntry struct {
	// ID is the unique identifier of the row
	ID int64 `json:"id" db:"id"`

	// IPAddress is the denied client address, unique across the table
	IPAddress string `json:"ipAddress" db:"ip_address"`

	// State is active or deleted
	State RecordState `json:"state" db:"state"`

	// Times is the cumulative number of block events for the address
	Times int `json:"times" db:"times"`

	// Reason is the cause of the most recent block
	Reason string `json:"reason" db:"reason"`

	// CreatedAt is when the address was first denied
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is when the row last changed
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsDeleted reports whether the entry has been soft-deleted.
func (b *BlacklistEntry) IsDeleted() bool {
	return !b.State.IsActive()
}

// BlacklistRequest is the body of POST /api/ip/blacklist.
type BlacklistRequest struct {
	IPAddress string `json:"ipAddress" validate:"required,ip"`
}
