// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines error categories, user-facing messages and
// database error codes. User-facing messages are informative without
// revealing implementation details.
package constants

// Error Types define the categories of errors that can occur in the application.
const (
	ErrorNotFound           = "resource not found"
	ErrorUnauthorized       = "unauthorized access"
	ErrorForbidden          = "forbidden access"
	ErrorBadRequest         = "invalid request"
	ErrorInternalServer     = "internal server error"
	ErrorValidation         = "validation error"
	ErrorDuplicate          = "duplicate resource"
	ErrorConflict           = "concurrent modification"
	ErrorInvalidCredentials = "invalid credentials"
	ErrorExpiredToken       = "expired token"
	ErrorInvalidToken       = "invalid token"
)

// User-Facing Messages returned in error envelopes.
const (
	// MsgAuthRequired is returned when a protected route is called anonymously.
	MsgAuthRequired = "Authentication required"

	// MsgInvalidPassword is returned for any failed login.
	MsgInvalidPassword = "Invalid username or password"

	// MsgAccessDenied is returned when a non-admin calls an admin route.
	MsgAccessDenied = "You don't have permission to access this resource"

	// MsgInternalServerError hides internal failures from clients.
	MsgInternalServerError = "An internal server error occurred"

	// MsgTokenExpired is returned when the access token has expired.
	MsgTokenExpired = "Authentication token has expired"

	// MsgInvalidToken is returned when the access token cannot be verified.
	MsgInvalidToken = "Invalid token"

	// MsgInvalidIPAddress is returned when a deny-list address cannot be parsed.
	MsgInvalidIPAddress = "Invalid IP address"

	// MsgRequestBodyTooLarge is returned when the body exceeds MaxRequestBodySize.
	MsgRequestBodyTooLarge = "Request body too large"

	// MsgEmptyRequestBody is returned when a JSON body is required but missing.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON is returned when the body cannot be decoded.
	MsgMalformedJSON = "Request body contains malformed JSON"

	// MsgResourceNotFound is returned when a resource does not exist.
	MsgResourceNotFound = "The requested resource could not be found"

	// MsgResourceAlreadyExists is returned on unique constraint violations.
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"

	// MsgTimesheetConflict is returned when another writer changed the entry first.
	MsgTimesheetConflict = "The entry was changed by someone else. Reload it or resend with force to overwrite"

	// MsgTimesheetInvalid is returned when a timesheet entry breaks a business rule.
	MsgTimesheetInvalid = "The timesheet entry violates one or more rules"

	// MsgTooManyRequests is returned by the rate-limit stage.
	MsgTooManyRequests = "Rate limit exceeded. Please try again later."

	// MsgServiceUnhealthy is returned by /health when the database is unreachable.
	MsgServiceUnhealthy = "Service is not healthy"
)

// Database Error Codes.
const (
	// DBErrorDuplicateKey is the message fragment of PostgreSQL unique violations.
	DBErrorDuplicateKey = "duplicate key value violates unique constraint"

	// PGErrorDuplicateConstraint is the SQLSTATE of unique violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the SQLSTATE of foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// PGErrorNotNullConstraint is the SQLSTATE of not-null violations.
	PGErrorNotNullConstraint = "23502"

	// PGErrorSerializationFailure is the SQLSTATE raised by concurrent updates
	// under serializable isolation.
	PGErrorSerializationFailure = "40001"
)

// Log Fields and Values.
const (
	LogCategoryAuth      = "auth"
	LogCategorySecurity  = "security"
	LogCategoryTimesheet = "timesheet"
	LogEventLogin        = "login"
	LogRedactedValue     = "[REDACTED]"
)
