// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table names, index names and the
// connection parameters used when building the PostgreSQL DSN.
package constants

// Table Names define the names of database tables used in the application.
const (
	// TableUsers stores accounts allowed to log in.
	TableUsers = "users"

	// TableIPWhitelist stores every IP address seen by the admission pipeline.
	TableIPWhitelist = "ip_whitelist"

	// TableIPBlacklist stores deny-listed IP addresses and their offence counters.
	TableIPBlacklist = "ip_blacklist"

	// TableUABlacklist stores user-agent rules.
	TableUABlacklist = "ua_blacklist"

	// TableAccessLog stores one record per HTTP request.
	TableAccessLog = "access_log"

	// TableTimesheetEntries stores one row per user and work date.
	TableTimesheetEntries = "timesheet_entries"

	// TableReportJobs stores asynchronous report requests.
	TableReportJobs = "report_jobs"
)

// Index Names define database index and constraint names.
const (
	IndexIPWhitelistAddress = "idx_ip_whitelist_address"
	IndexIPBlacklistAddress = "idx_ip_blacklist_address"
	IndexTimesheetUserDate  = "idx_timesheet_user_date"
	IndexAccessLogCreatedAt = "idx_access_log_created_at"
)

// PostgreSQL connection string parameters.
const (
	PostgresConnectTimeout = "connect_timeout=15"
)
