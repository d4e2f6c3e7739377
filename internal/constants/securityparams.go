package constants

// Context Key Names
const (
	UserIDContextKey    = "user_id"
	UsernameContextKey  = "username"
	IsAdminContextKey   = "is_admin"
	RequestIDContextKey = "request_id"
)

// Auth Token Types
const (
	TokenTypeAccess = "access"

	// TokenTypeBearer is the token_type reported to clients.
	TokenTypeBearer = "Bearer"
)

// Credential Validation
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// Rate Limit Categories
const (
	RateLimitCategoryGeneral = "general"
	RateLimitCategoryLogin   = "login"
)

// Admission Stages
const (
	StageGeo       = "geo"
	StageDenyList  = "deny_list"
	StageUserAgent = "user_agent"
	StageRateLimit = "rate_limit"
	StageLogin     = "login_rate_limit"
)

// Proxy headers consulted when resolving the client IP.
const (
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderRetryAfter    = "Retry-After"
	HeaderUserAgent     = "User-Agent"
	HeaderReferer       = "Referer"
)
