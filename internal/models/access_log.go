package models

import (
	"time"
)

// AccessLogRecord is the audit trail of a single HTTP request. Exactly one
// record is appended per request and it is never updated.
type AccessLogRecord struct {
	ID            int64     `json:"id" db:"id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	RequestID     string    `json:"requestId" db:"request_id"`
	Method        string    `json:"method" db:"method"`
	Path          string    `json:"path" db:"path"`
	Query         string    `json:"query" db:"query"`
	Status        int       `json:"status" db:"status"`
	DurationMs    int64     `json:"durationMs" db:"duration_ms"`
	RemoteIP      string    `json:"remoteIp" db:"remote_ip"`
	UserAgent     string    `json:"userAgent" db:"user_agent"`
	Referer       string    `json:"referer" db:"referer"`
	Username      string    `json:"username" db:"username"`
	RequestBytes  int64     `json:"requestBytes" db:"request_bytes"`
	ResponseBytes int64     `json:"responseBytes" db:"response_bytes"`
}
