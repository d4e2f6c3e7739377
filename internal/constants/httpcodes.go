// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP-related constants: status codes, the
// machine-readable codes carried in error envelopes, header names, content
// types and the values of the security headers attached to every response.
package constants

// HTTP Status Codes used by handlers and the admission pipeline.
const (
	// StatusOK indicates that the request has succeeded.
	StatusOK = 200

	// StatusCreated indicates that a new resource was created.
	StatusCreated = 201

	// StatusAccepted indicates that work was queued for later processing.
	StatusAccepted = 202

	// StatusNoContent indicates success with no response body.
	StatusNoContent = 204

	// StatusBadRequest indicates a malformed or invalid request.
	StatusBadRequest = 400

	// StatusUnauthorized indicates missing or invalid authentication.
	StatusUnauthorized = 401

	// StatusForbidden indicates the caller lacks permission.
	StatusForbidden = 403

	// StatusNotFound indicates a missing resource. It is also the opaque
	// rejection status of the admission pipeline.
	StatusNotFound = 404

	// StatusConflict indicates a concurrent write was detected.
	StatusConflict = 409

	// StatusTooManyRequests indicates the caller exhausted its rate limit.
	StatusTooManyRequests = 429

	// StatusInternalServerError indicates an unexpected server condition.
	StatusInternalServerError = 500
)

// Response Codes are the machine-readable codes of the JSON error envelope.
const (
	// ResponseSuccess indicates that the request was processed successfully.
	ResponseSuccess = true

	// ResponseFailure indicates that the request processing failed.
	ResponseFailure = false

	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeConflict           = "conflict"
	CodeInternalError      = "internal_error"
	CodeValidationError    = "validation_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeTokenExpired       = "token_expired"
	CodeTokenInvalid       = "token_invalid"
	CodeDuplicateResource  = "duplicate_resource"
	CodeTooManyRequests    = "too_many_requests"
	CodeServiceUnavailable = "service_unavailable"
)

// HTTP Header Names used in requests and responses.
const (
	HeaderContentType           = "Content-Type"
	HeaderContentLength         = "Content-Length"
	HeaderCacheControl          = "Cache-Control"
	HeaderPragma                = "Pragma"
	HeaderExpires               = "Expires"
	HeaderConnection            = "Connection"
	HeaderAuthorization         = "Authorization"
	HeaderXRequestID            = "X-Request-ID"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
	HeaderXAccelBuffering       = "X-Accel-Buffering"
)

// HTTP Content Types.
const (
	// ContentTypeJSON specifies the content is in JSON format.
	ContentTypeJSON = "application/json"

	// ContentTypeEventStream specifies a server-sent event stream.
	ContentTypeEventStream = "text/event-stream"
)

// Security Header Values attached by the SecurityHeaders middleware.
const (
	// FrameOptionsDeny prevents the page from being displayed in a frame.
	FrameOptionsDeny = "DENY"

	// ContentTypeOptionsNoSniff prevents MIME type sniffing.
	ContentTypeOptionsNoSniff = "nosniff"

	// ReferrerPolicyStrictOrigin restricts referrer information for cross-origin requests.
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"

	// CSPDefaultSrc restricts content sources to the same origin by default.
	CSPDefaultSrc = "default-src 'self'"

	// CacheControlNoStore prevents caching of API responses.
	CacheControlNoStore = "no-cache, no-store, must-revalidate"

	// CacheControlNoCache is sent on event streams.
	CacheControlNoCache = "no-cache"

	// PragmaNoCache prevents caching in HTTP/1.0 caches.
	PragmaNoCache = "no-cache"

	// ExpiresZero sets the expiration date to the past to prevent caching.
	ExpiresZero = "0"
)
