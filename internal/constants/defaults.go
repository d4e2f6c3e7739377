// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide fallback settings for configuration, bound resource usage
// and define the parameters of the admission pipeline and the timesheet engine.
package constants

// Default Pagination Values define the parameters used for paginated responses.
const (
	// DefaultPage is the default page number for paginated results when not specified.
	DefaultPage = 1

	// DefaultPageSize is the default number of items per page when not specified.
	DefaultPageSize = 20

	// MaxPageSize is the maximum allowable page size.
	MaxPageSize = 100

	// MinPageSize is the minimum allowable page size.
	MinPageSize = 1
)

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBPort is the default PostgreSQL port.
	DefaultDBPort = 5432

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default number of idle database connections kept open.
	DefaultDBMinConnections = 5

	// DefaultDBSSLMode is the sslmode used when none is configured.
	DefaultDBSSLMode = "disable"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"

	// DefaultLogMaxSizeMB is the size at which the log file is rotated.
	DefaultLogMaxSizeMB = 100

	// DefaultLogMaxBackups is the number of rotated log files kept on disk.
	DefaultLogMaxBackups = 5

	// DefaultLogMaxAgeDays is the number of days rotated log files are kept.
	DefaultLogMaxAgeDays = 30

	// DefaultAppName is the application name reported by /version.
	DefaultAppName = "timeguard"

	// DefaultConfigPath is the configuration file read when no --config flag is given.
	DefaultConfigPath = "config.yaml"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment.
	EnvProduction = "production"
)

// Request Size Limits define the maximum allowed sizes for request bodies.
const (
	// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
	MaxRequestBodySize = 1048576 // 1MB in bytes
)

// Default Password Hash Settings define the parameters for Argon2id password hashing.
const (
	// DefaultPasswordHashMemory is the memory cost parameter for Argon2id hashing.
	DefaultPasswordHashMemory = 64 * 1024

	// DefaultPasswordHashIterations is the number of iterations for Argon2id hashing.
	DefaultPasswordHashIterations = 3

	// DefaultPasswordHashParallelism is the parallelism parameter for Argon2id hashing.
	DefaultPasswordHashParallelism = 2

	// DefaultPasswordHashSaltLength is the length in bytes of the random salt.
	DefaultPasswordHashSaltLength = 16

	// DefaultPasswordHashKeyLength is the length in bytes of the generated hash.
	DefaultPasswordHashKeyLength = 32

	// DevPasswordHashMemory is a reduced memory setting for development environments.
	DevPasswordHashMemory = 16 * 1024

	// DevPasswordHashIterations is a reduced iteration count for development environments.
	DevPasswordHashIterations = 1
)

// Admission Pipeline Defaults define the parameters of the perimeter checks
// applied to every inbound request.
const (
	// DefaultAllowedCountry is the single country allowed when geo filtering
	// is enabled and no allow-set is configured.
	DefaultAllowedCountry = "NO"

	// DefaultGeoCacheSize is the number of resolved IP addresses kept in the geo cache.
	DefaultGeoCacheSize = 10000

	// DefaultRateLimitCapacity is the number of requests admitted per interval
	// by the general limiter.
	DefaultRateLimitCapacity = 100

	// DefaultLoginRateLimitCapacity is the number of login attempts admitted per
	// interval by the login limiter.
	DefaultLoginRateLimitCapacity = 5

	// DefaultRateLimitMaxKeys bounds the number of per-key buckets kept in memory.
	DefaultRateLimitMaxKeys = 100000

	// BlockReasonGeo is the reason stored when a request is rejected by the geo filter.
	BlockReasonGeo = "geo-blocked"

	// BlockReasonDenyList is the reason stored when a deny-listed IP is seen again.
	BlockReasonDenyList = "deny-list"

	// BlockReasonManual is the reason stored when an administrator adds an IP.
	BlockReasonManual = "manual"
)

// Timesheet Defaults define the limits enforced on timesheet entries.
const (
	// MinutesPerDay is the number of minutes in a calendar day.
	MinutesPerDay = 1440

	// DefaultMaxShiftMinutes is the longest ordinary shift accepted by the validator.
	DefaultMaxShiftMinutes = 720

	// MaxNoteLength is the maximum length of a timesheet note.
	MaxNoteLength = 1000

	// MaxUserAgentLength and MaxRefererLength bound the audit record columns.
	MaxUserAgentLength = 512
	MaxRefererLength   = 1024

	// MaxMethodLength and MaxRemoteIPLength match the access_log method and
	// remote_ip columns.
	MaxMethodLength   = 16
	MaxRemoteIPLength = 45

	// MaxReportRangeDays is the longest period a report job may cover.
	MaxReportRangeDays = 366
)

// Maintenance Defaults define the retention and schedule of background jobs.
const (
	// DefaultAccessLogRetentionDays is the number of days access log records are kept.
	DefaultAccessLogRetentionDays = 90

	// DefaultHealthCheckSchedule is the cron schedule of the database health check.
	DefaultHealthCheckSchedule = "@every 1h"

	// DefaultAccessLogPurgeSchedule is the cron schedule of the access log retention purge.
	DefaultAccessLogPurgeSchedule = "@daily"

	// DefaultReconcileSchedule is the cron schedule of the reputation reconciliation pass.
	DefaultReconcileSchedule = "@every 15m"
)

// Auth Constants define values related to token management.
const (
	// DefaultJWTIssuer is the issuer claim value for JWT tokens.
	DefaultJWTIssuer = "timeguard-api"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "
)
