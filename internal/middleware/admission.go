package middleware

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/metrics"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
	"github.com/yasinhessnawi1/timeguard/internal/utils/ratelimit"
)

// CountryFilter decides whether an address may connect from its country.
type CountryFilter interface {
	IsAllowedCountry(ip string) bool
}

// ReputationStore is the deny-list and first-seen tracking used by admission.
type ReputationStore interface {
	IsBlacklisted(ctx context.Context, ip string) (bool, error)
	RecordBlock(ctx context.Context, ip, reason string) error
	EnsureTracked(ctx context.Context, ip string) error
}

// UserAgentMatcher reports whether a User-Agent is blacklisted.
type UserAgentMatcher interface {
	Matches(ctx context.Context, userAgent string) bool
}

// Admission runs the per-request security checks in a fixed order and stops
// at the first rejection:
//
//  1. geo filter
//  2. deny list
//  3. first-seen tracking (never rejects)
//  4. user agent blacklist
//  5. rate limits (general, plus login for POST /api/auth/login)
//
// Stages 1, 2 and 4 answer 404 with no body so a blocked client cannot tell
// why. Stage 5 answers 429 with Retry-After.
type Admission struct {
	geo        CountryFilter
	reputation ReputationStore
	userAgents UserAgentMatcher
	general    *ratelimit.Store
	login      *ratelimit.Store

	exemptPaths     []string
	trustProxy      bool
	loginRetryAfter int
}

// NewAdmission creates the admission pipeline. login may be nil to disable
// the login-specific limiter.
func NewAdmission(
	cfg *config.SecuritySettings,
	geo CountryFilter,
	reputation ReputationStore,
	userAgents UserAgentMatcher,
	general, login *ratelimit.Store,
) *Admission {
	a := &Admission{
		geo:         geo,
		reputation:  reputation,
		userAgents:  userAgents,
		general:     general,
		login:       login,
		exemptPaths: cfg.ExemptPaths,
		trustProxy:  cfg.TrustProxyHeaders,
	}
	if cfg.LoginRetryAfterHint > 0 {
		a.loginRetryAfter = int(math.Ceil(cfg.LoginRetryAfterHint.Seconds()))
	}
	return a
}

// Handler wraps next with the admission checks.
func (a *Admission) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestClientIP(r, a.trustProxy)

		if a.geo != nil && !a.geo.IsAllowedCountry(ip) {
			a.block(ctx, w, r, ip, constants.StageGeo, constants.BlockReasonGeo)
			return
		}

		blacklisted, err := a.reputation.IsBlacklisted(ctx, ip)
		if err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("Deny-list lookup failed, admitting request")
		}
		if blacklisted {
			a.block(ctx, w, r, ip, constants.StageDenyList, constants.BlockReasonDenyList)
			return
		}

		if err := a.reputation.EnsureTracked(ctx, ip); err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("Failed to track client IP")
		}

		if a.userAgents != nil && a.userAgents.Matches(ctx, r.UserAgent()) {
			a.reject(w, r, ip, constants.StageUserAgent, "user agent blacklisted")
			return
		}

		if a.general != nil && !a.general.TryConsume(ip) {
			a.throttle(w, r, ip, constants.StageRateLimit, a.general.RetryAfterSeconds())
			return
		}
		if a.login != nil && a.isLogin(r) && !a.login.TryConsume(ip) {
			retry := a.loginRetryAfter
			if retry == 0 {
				retry = a.login.RetryAfterSeconds()
			}
			a.throttle(w, r, ip, constants.StageLogin, retry)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// block records a block event for ip and rejects the request opaquely.
func (a *Admission) block(ctx context.Context, w http.ResponseWriter, r *http.Request, ip, stage, reason string) {
	if err := a.reputation.RecordBlock(ctx, ip, reason); err != nil {
		log.Error().Err(err).Str("ip", ip).Str("stage", stage).Msg("Failed to record block event")
	}
	a.reject(w, r, ip, stage, reason)
}

func (a *Admission) reject(w http.ResponseWriter, r *http.Request, ip, stage, reason string) {
	metrics.AdmissionRejections.WithLabelValues(stage).Inc()
	utils.LogSecurity(stage, ip, r.URL.Path, reason)
	w.WriteHeader(http.StatusNotFound)
}

func (a *Admission) throttle(w http.ResponseWriter, r *http.Request, ip, stage string, retryAfter int) {
	metrics.AdmissionRejections.WithLabelValues(stage).Inc()
	utils.LogSecurity(stage, ip, r.URL.Path, "rate limit exceeded")
	utils.TooManyRequests(w, retryAfter)
}

func (a *Admission) isLogin(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == constants.AuthLoginPath
}

func (a *Admission) isExempt(path string) bool {
	for _, p := range a.exemptPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
