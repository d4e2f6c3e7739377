package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout  = 30 * time.Second
	DBQueryTimeout       = 15 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
	DBConnMaxIdleTime    = 30 * time.Minute
	AuditWriteTimeout    = 3 * time.Second
)

// Authentication Timeouts
const (
	DefaultJWTExpiry = 8 * time.Hour
)

// Admission Timeouts
const (
	DefaultUARuleCacheTTL      = 60 * time.Second
	DefaultGeoCacheTTL         = 24 * time.Hour
	DefaultRateLimitInterval   = time.Minute
	DefaultLoginLimitInterval  = time.Minute
	DefaultRateLimitIdleTTL    = 10 * time.Minute
	DefaultLoginRetryAfterHint = time.Minute
)

// Live Stream Timeouts
const (
	DefaultHeartbeatInterval = 25 * time.Second
	WSWriteWait              = 10 * time.Second
	WSPongWait               = 60 * time.Second
	SubscriberBufferSize     = 16
)
