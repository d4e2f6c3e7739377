// Package auth provides authentication and authorization functionality for the TimeGuard API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// Context keys for storing authenticated user information.
const (
	// UserIDContextKey is the context key for storing the authenticated user ID.
	UserIDContextKey ContextKey = constants.UserIDContextKey

	// UsernameContextKey is the context key for storing the authenticated username.
	UsernameContextKey ContextKey = constants.UsernameContextKey

	// IsAdminContextKey is the context key for the administrator flag.
	IsAdminContextKey ContextKey = constants.IsAdminContextKey
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the caller's identity if valid.
	Authenticate(r *http.Request) (*Identity, error)
}

// JWTAuthProvider implements JWT-based authentication using the
// Authorization: Bearer header.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{
		jwtService: jwtService,
	}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*Identity, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)
	claims, err := p.jwtService.ValidateToken(token, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDContextKey, id.UserID)
	ctx = context.WithValue(ctx, UsernameContextKey, id.Username)
	return context.WithValue(ctx, IsAdminContextKey, id.IsAdmin)
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provider in turn and rejects the request with 401 when none succeeds.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())

		var lastErr error = utils.ErrUnauthorized
		for _, provider := range providers {
			id, err := provider.Authenticate(r)
			if err == nil {
				log.Debug().
					Int64("user_id", id.UserID).
					Str("username", id.Username).
					Str("request_id", requestID).
					Str("path", r.URL.Path).
					Msg("User authenticated")

				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
			lastErr = err
		}

		log.Info().
			Err(lastErr).
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
			return
		}
		utils.Unauthorized(w, constants.MsgAuthRequired)
	})
}

// RequireAuth is a middleware that requires authentication.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// RequireAdmin rejects authenticated callers that are not administrators.
// It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			username, _ := GetUsername(r)
			log.Warn().
				Str("category", constants.LogCategorySecurity).
				Str("username", username).
				Str("path", r.URL.Path).
				Msg("Non-admin tried to access an admin route")
			utils.Forbidden(w, constants.MsgAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDContextKey).(int64)
	return userID, ok
}

// GetUsername extracts the username from the request context.
func GetUsername(r *http.Request) (string, bool) {
	username, ok := r.Context().Value(UsernameContextKey).(string)
	return username, ok
}

// UsernameFromContext extracts the username from ctx, or "" for anonymous requests.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(UsernameContextKey).(string)
	return username
}

// IsAdmin reports whether the caller is an authenticated administrator.
func IsAdmin(r *http.Request) bool {
	isAdmin, _ := r.Context().Value(IsAdminContextKey).(bool)
	return isAdmin
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	_, ok := GetUserID(r)
	return ok
}
