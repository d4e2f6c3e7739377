// Package handlers provides HTTP request handlers for the TimeGuard API.
package handlers

import (
	"context"

	"github.com/yasinhessnawi1/timeguard/internal/broadcast"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// AuthServiceInterface defines the methods required from the authentication service.
type AuthServiceInterface interface {
	// Login verifies the credentials and issues an access token.
	//
	// Returns:
	//   - The token response if the credentials are valid
	//   - An invalid credentials error otherwise
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
}

// TimesheetServiceInterface defines the timesheet operations used by the handlers.
type TimesheetServiceInterface interface {
	// SaveOrUpdate merges the request into the caller's entry for the date.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - username: The authenticated user that owns the entry
	//   - req: The supplied fields, force flag and optional expected version
	//
	// Returns:
	//   - The stored entry with recomputed duration and working minutes
	//   - A validation error listing violated rules
	//   - A conflict error when a concurrent write won and force is not set
	SaveOrUpdate(ctx context.Context, username string, req *models.TimesheetEntryRequest) (*models.TimesheetEntry, error)

	// GetEntries lists the caller's entries between from and to inclusive.
	// Empty bounds default to the current month.
	GetEntries(ctx context.Context, username, from, to string) ([]*models.TimesheetEntry, error)
}

// StreamHub is the fan-out set live viewers subscribe to.
type StreamHub interface {
	Subscribe(sub broadcast.Subscriber)
	Unsubscribe(id string)
}

// ReputationServiceInterface defines the IP deny-list administration operations.
type ReputationServiceInterface interface {
	AddManual(ctx context.Context, ip string) (*models.BlacklistEntry, error)
	SoftDelete(ctx context.Context, id int64) error
	ListBlacklist(ctx context.Context, page utils.PaginationParams) ([]*models.BlacklistEntry, int, error)
	ListWhitelist(ctx context.Context, page utils.PaginationParams) ([]*models.WhitelistEntry, int, error)
}

// UARuleServiceInterface defines the User-Agent rule administration operations.
type UARuleServiceInterface interface {
	ListRules(ctx context.Context) ([]*models.UARule, error)
	CreateRule(ctx context.Context, req *models.UARuleRequest) (*models.UARule, error)
	DeleteRule(ctx context.Context, id int64) error
}

// AccessLogReader pages through the request audit log.
type AccessLogReader interface {
	List(ctx context.Context, offset, limit int) ([]*models.AccessLogRecord, int, error)
}

// ReportServiceInterface defines the report job operations.
type ReportServiceInterface interface {
	Create(ctx context.Context, username string, req *models.ReportJobRequest) (*models.ReportJob, error)
	Get(ctx context.Context, username string, id int64) (*models.ReportJob, error)
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
