package models

import (
	"time"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// MatchType selects how a UARule pattern is compared with a User-Agent header.
type MatchType string

const (
	MatchExact  MatchType = constants.MatchTypeExact
	MatchPrefix MatchType = constants.MatchTypePrefix
	MatchRegex  MatchType = constants.MatchTypeRegex
)

// Valid reports whether m is one of the supported match types.
func (m MatchType) Valid() bool {
	switch m {
	case MatchExact, MatchPrefix, MatchRegex:
		return true
	}
	return false
}

// UARule is a user-agent blacklist rule. Rules are immutable once created
// except for soft deletion.
type UARule struct {
	ID        int64       `json:"id" db:"id"`
	Pattern   string      `json:"pattern" db:"pattern"`
	MatchType MatchType   `json:"matchType" db:"match_type"`
	State     RecordState `json:"state" db:"state"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// UARuleRequest is the body of POST /api/ua-blacklist.
type UARuleRequest struct {
	Pattern   string `json:"pattern" validate:"required,max=512"`
	MatchType string `json:"matchType" validate:"required,oneof=EXACT PREFIX REGEX"`
}
