package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/middleware"
	"github.com/yasinhessnawi1/timeguard/internal/utils/ratelimit"
)

type MockReputation struct {
	mock.Mock
}

func (m *MockReputation) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}

func (m *MockReputation) RecordBlock(ctx context.Context, ip, reason string) error {
	return m.Called(ctx, ip, reason).Error(0)
}

func (m *MockReputation) EnsureTracked(ctx context.Context, ip string) error {
	return m.Called(ctx, ip).Error(0)
}

type stubCountryFilter struct{ denied map[string]bool }

func (f stubCountryFilter) IsAllowedCountry(ip string) bool { return !f.denied[ip] }

type stubUAMatcher struct{ blocked string }

func (m stubUAMatcher) Matches(ctx context.Context, ua string) bool {
	return m.blocked != "" && ua == m.blocked
}

type admissionFixture struct {
	rep     *MockReputation
	geo     stubCountryFilter
	ua      stubUAMatcher
	general *ratelimit.Store
	login   *ratelimit.Store
	cfg     *config.SecuritySettings
	reached int
}

func newAdmissionFixture() *admissionFixture {
	return &admissionFixture{
		rep:     &MockReputation{},
		geo:     stubCountryFilter{denied: map[string]bool{}},
		general: ratelimit.NewStore(constants.RateLimitCategoryGeneral, ratelimit.Rate{Capacity: 100, Interval: time.Minute}, 1000, time.Minute),
		login:   ratelimit.NewStore(constants.RateLimitCategoryLogin, ratelimit.Rate{Capacity: 2, Interval: time.Minute}, 1000, time.Minute),
		cfg: &config.SecuritySettings{
			ExemptPaths: []string{constants.HealthPath, constants.MetricsPath},
		},
	}
}

func (f *admissionFixture) handler() http.Handler {
	adm := middleware.NewAdmission(f.cfg, f.geo, f.rep, f.ua, f.general, f.login)
	return adm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.reached++
		w.WriteHeader(http.StatusOK)
	}))
}

func serve(h http.Handler, method, path, ip, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":40000"
	if ua != "" {
		req.Header.Set(constants.HeaderUserAgent, ua)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdmission_AdmitsAndTracks(t *testing.T) {
	// Arrange
	f := newAdmissionFixture()
	f.rep.On("IsBlacklisted", mock.Anything, "198.51.100.4").Return(false, nil)
	f.rep.On("EnsureTracked", mock.Anything, "198.51.100.4").Return(nil)

	// Act
	rec := serve(f.handler(), http.MethodGet, "/timesheet/api/entries", "198.51.100.4", "Mozilla/5.0")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.reached)
	f.rep.AssertExpectations(t)
	f.rep.AssertNotCalled(t, "RecordBlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmission_GeoBlockRecordsAndHides(t *testing.T) {
	f := newAdmissionFixture()
	f.geo.denied["203.0.113.9"] = true
	f.rep.On("RecordBlock", mock.Anything, "203.0.113.9", constants.BlockReasonGeo).Return(nil)

	rec := serve(f.handler(), http.MethodGet, "/timesheet/api/entries", "203.0.113.9", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 0, f.reached)
	f.rep.AssertExpectations(t)
	f.rep.AssertNotCalled(t, "IsBlacklisted", mock.Anything, mock.Anything)
}

func TestAdmission_DenyListRecordsRepeatOffence(t *testing.T) {
	f := newAdmissionFixture()
	f.rep.On("IsBlacklisted", mock.Anything, "192.0.2.66").Return(true, nil)
	f.rep.On("RecordBlock", mock.Anything, "192.0.2.66", constants.BlockReasonDenyList).Return(nil)

	rec := serve(f.handler(), http.MethodGet, "/api/ip/blacklist", "192.0.2.66", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
	f.rep.AssertExpectations(t)
	f.rep.AssertNotCalled(t, "EnsureTracked", mock.Anything, mock.Anything)
}

func TestAdmission_DenyListErrorsFailOpen(t *testing.T) {
	f := newAdmissionFixture()
	f.rep.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, errors.New("db down"))
	f.rep.On("EnsureTracked", mock.Anything, mock.Anything).Return(errors.New("db down"))

	rec := serve(f.handler(), http.MethodGet, "/timesheet/api/entries", "192.0.2.10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmission_RecordBlockFailureStillRejects(t *testing.T) {
	f := newAdmissionFixture()
	f.geo.denied["203.0.113.9"] = true
	f.rep.On("RecordBlock", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

	rec := serve(f.handler(), http.MethodGet, "/", "203.0.113.9", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmission_UserAgentLooksLikeIPBlock(t *testing.T) {
	f := newAdmissionFixture()
	f.ua = stubUAMatcher{blocked: "sqlmap/1.7"}
	f.rep.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, nil)
	f.rep.On("EnsureTracked", mock.Anything, mock.Anything).Return(nil)

	rec := serve(f.handler(), http.MethodGet, "/", "192.0.2.20", "sqlmap/1.7")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
	f.rep.AssertNotCalled(t, "RecordBlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmission_GeneralRateLimit(t *testing.T) {
	f := newAdmissionFixture()
	f.general = ratelimit.NewStore(constants.RateLimitCategoryGeneral, ratelimit.Rate{Capacity: 5, Interval: time.Minute}, 1000, time.Minute)
	f.rep.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, nil)
	f.rep.On("EnsureTracked", mock.Anything, mock.Anything).Return(nil)
	h := f.handler()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/", "192.0.2.30", "").Code)
	}
	rec := serve(h, http.MethodGet, "/", "192.0.2.30", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "12", rec.Header().Get(constants.HeaderRetryAfter))
	assert.Contains(t, rec.Body.String(), constants.CodeTooManyRequests)
	// Another client is unaffected.
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/", "192.0.2.31", "").Code)
	f.rep.AssertNotCalled(t, "RecordBlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmission_LoginLimiterOnlyOnLoginPost(t *testing.T) {
	f := newAdmissionFixture()
	f.cfg.LoginRetryAfterHint = 90 * time.Second
	f.rep.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, nil)
	f.rep.On("EnsureTracked", mock.Anything, mock.Anything).Return(nil)
	h := f.handler()

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, constants.AuthLoginPath, "192.0.2.40", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, constants.AuthLoginPath, "192.0.2.40", "").Code)

	rec := serve(h, http.MethodPost, constants.AuthLoginPath, "192.0.2.40", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get(constants.HeaderRetryAfter))

	// GET on the same route and other routes only see the general limiter.
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, constants.AuthLoginPath, "192.0.2.40", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, constants.TimesheetEntryPath, "192.0.2.40", "").Code)
}

func TestAdmission_ExemptPaths(t *testing.T) {
	f := newAdmissionFixture()
	f.geo.denied["203.0.113.9"] = true
	h := f.handler()

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, constants.HealthPath, "203.0.113.9", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, constants.MetricsPath, "203.0.113.9", "").Code)
	f.rep.AssertNotCalled(t, "RecordBlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmission_ProxyHeaders(t *testing.T) {
	f := newAdmissionFixture()
	f.cfg.TrustProxyHeaders = true
	f.geo.denied["203.0.113.9"] = true
	f.rep.On("RecordBlock", mock.Anything, "203.0.113.9", constants.BlockReasonGeo).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set(constants.HeaderXForwardedFor, "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.rep.AssertExpectations(t)
}
