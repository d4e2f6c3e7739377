package constants

// Base Routes
const (
	APIBasePath = "/api"
	HealthPath  = "/health"
	VersionPath = "/version"
	MetricsPath = "/metrics"
)

// Authentication Routes
const (
	AuthBasePath  = "/api/auth"
	AuthLoginPath = "/api/auth/login"
)

// Security Administration Routes
const (
	IPBlacklistPath       = "/api/ip/blacklist"
	IPBlacklistDetailPath = "/api/ip/blacklist/{id}"
	IPWhitelistPath       = "/api/ip/whitelist"
	UABlacklistPath       = "/api/ua-blacklist"
	UABlacklistDetailPath = "/api/ua-blacklist/{id}"
	AccessLogsPath        = "/api/access-logs"
)

// Timesheet Routes
const (
	TimesheetBasePath     = "/timesheet/api"
	TimesheetEntryPath    = "/timesheet/api/entry"
	TimesheetEntriesPath  = "/timesheet/api/entries"
	TimesheetStreamPath   = "/timesheet/api/stream"
	TimesheetWSPath       = "/timesheet/api/ws"
	TimesheetReportsPath  = "/timesheet/api/reports"
	TimesheetReportDetail = "/timesheet/api/reports/{id}"
)

// URL Parameters
const (
	ParamID = "id"
)

// Query Parameters
const (
	QueryParamPage     = "page"
	QueryParamPageSize = "page_size"
	QueryParamFrom     = "from"
	QueryParamTo       = "to"
)
