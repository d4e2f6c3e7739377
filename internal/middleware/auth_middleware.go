package middleware

import (
	"net/http"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// JWTAuth is a middleware that requires a valid bearer token. The username
// is attached to the request's audit record.
func JWTAuth(jwtService auth.JWTValidator) func(http.Handler) http.Handler {
	requireAuth := auth.RequireAuth(auth.NewJWTAuthProvider(jwtService))
	return func(next http.Handler) http.Handler {
		return requireAuth(AuditUser(next))
	}
}

// AdminOnly requires a valid bearer token that belongs to an administrator.
func AdminOnly(jwtService auth.JWTValidator) func(http.Handler) http.Handler {
	requireAuth := JWTAuth(jwtService)
	return func(next http.Handler) http.Handler {
		return requireAuth(auth.RequireAdmin(next))
	}
}

// AuditUser copies the authenticated username into the audit record.
func AuditUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username, ok := auth.GetUsername(r); ok {
			SetAuditUser(r.Context(), username)
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			h.Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			h.Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			h.Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)

			next.ServeHTTP(w, r)
		})
	}
}
