package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/database"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{
			Environment: "test",
			Name:        "timeguard",
			Version:     "1.2.3",
		},
		Server: config.ServerSettings{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		JWT: config.JWTSettings{
			Secret: "test-secret-key-that-is-long-enough",
			Expiry: time.Hour,
			Issuer: "timeguard-test",
		},
		CORS: config.CORSSettings{
			AllowedOrigins:   []string{"https://app.example.com"},
			AllowCredentials: true,
		},
		Security: config.SecuritySettings{
			RateLimitCapacity:  100,
			RateLimitInterval:  time.Minute,
			LoginLimitCapacity: 5,
			LoginLimitInterval: time.Minute,
			RateLimitMaxKeys:   100,
			RateLimitIdleTTL:   time.Minute,
			UARuleCacheTTL:     time.Minute,
			ExemptPaths:        []string{"/health", "/version", "/metrics"},
		},
		Timesheet: config.TimesheetSettings{
			MaxShiftMinutes:   960,
			HeartbeatInterval: time.Second,
		},
		Maintenance: config.MaintenanceSettings{
			HealthCheckSchedule:    "@every 1h",
			AccessLogPurgeSchedule: "@every 24h",
			ReconcileSchedule:      "@every 15m",
			AccessLogRetentionDays: 30,
		},
	}
}

// newTestServer builds a server on a sqlmock connection. Queries the test
// does not expect fail, which the admission and audit paths tolerate.
func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s, err := New(testConfig(), database.NewPool(sqlx.NewDb(db, "sqlmock")))
	require.NoError(t, err)
	return s, mock
}

func bearer(t *testing.T, s *Server, username string, admin bool) string {
	t.Helper()
	token, _, err := s.authProviders.JWTService.GenerateAccessToken(1, username, admin)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestNew(t *testing.T) {
	s, _ := newTestServer(t)

	require.NotNil(t, s.Handlers)
	assert.NotNil(t, s.Handlers.Health)
	assert.NotNil(t, s.Handlers.Auth)
	assert.NotNil(t, s.Handlers.Timesheet)
	assert.NotNil(t, s.Handlers.Security)
	assert.NotNil(t, s.Handlers.Report)
	assert.NotNil(t, s.GetRouter())
	assert.False(t, s.geo.Enabled())
	assert.Equal(t, "127.0.0.1:8080", s.httpServer.Addr)
}

func TestHealthAndVersion(t *testing.T) {
	s, mock := newTestServer(t)
	router := s.GetRouter()

	t.Run("Health", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec("INSERT INTO access_log").WillReturnResult(sqlmock.NewResult(1, 1))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"healthy"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Health reports database failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Version", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"1.2.3"`)
	})

	t.Run("Metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()

	s.GetRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("Allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/timesheet/api/entry", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()

		s.GetRouter().ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("Unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/version", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		s.GetRouter().ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRouteProtection(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{"Entries without token", http.MethodGet, "/timesheet/api/entries", "", http.StatusUnauthorized},
		{"Stream without token", http.MethodGet, "/timesheet/api/stream", "", http.StatusUnauthorized},
		{"Report without token", http.MethodGet, "/timesheet/api/reports/1", "", http.StatusUnauthorized},
		{"Blacklist without token", http.MethodGet, "/api/ip/blacklist", "", http.StatusUnauthorized},
		{"Blacklist as regular user", http.MethodGet, "/api/ip/blacklist", bearer(t, s, "alice", false), http.StatusForbidden},
		{"Access logs as regular user", http.MethodGet, "/api/access-logs", bearer(t, s, "alice", false), http.StatusForbidden},
		{"Garbage token", http.MethodGet, "/timesheet/api/entries", "Bearer nope", http.StatusUnauthorized},
		{"Unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "198.51.100.7:4000"
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			w := httptest.NewRecorder()

			s.GetRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetAPIRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/routes", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("Authorization", bearer(t, s, "admin", true))
	w := httptest.NewRecorder()

	s.GetRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, route := range []string{
		"/api/auth/login",
		"/api/ip/blacklist",
		"/api/ip/blacklist/{id}",
		"/api/ip/whitelist",
		"/api/ua-blacklist/",
		"/api/ua-blacklist/{id}",
		"/api/access-logs",
		"/timesheet/api/entry",
		"/timesheet/api/entries",
		"/timesheet/api/stream",
		"/timesheet/api/ws",
		"/timesheet/api/reports",
		"/timesheet/api/reports/{id}",
	} {
		assert.Contains(t, body, `"`+route+`"`)
	}
}

func TestBackgroundAndShutdown(t *testing.T) {
	s, mock := newTestServer(t)
	mock.ExpectClose()

	require.NoError(t, s.StartBackground(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMaintenanceTask(t *testing.T) {
	s, mock := newTestServer(t)
	mock.ExpectExec("DELETE FROM access_log WHERE created_at").WillReturnResult(sqlmock.NewResult(0, 3))

	assert.ElementsMatch(t, []string{"database_health", "access_log_purge", "reconcile_ip_lists"}, s.MaintenanceTasks())
	require.NoError(t, s.RunMaintenanceTask(context.Background(), "access_log_purge"))
	assert.Error(t, s.RunMaintenanceTask(context.Background(), "defragment"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
