// Package server wires the TimeGuard components together and manages the
// HTTP server lifecycle.
//
// Initialization runs in a fixed order: database, auth providers,
// repositories, services, admission, handlers, routes. Background work (the
// stream heartbeat and the maintenance scheduler) starts with Start and stops
// before the HTTP server drains on shutdown, so open event streams do not
// hold the shutdown up.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/broadcast"
	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/geoip"
	"github.com/yasinhessnawi1/timeguard/internal/handlers"
	"github.com/yasinhessnawi1/timeguard/internal/middleware"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/service"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
	"github.com/yasinhessnawi1/timeguard/internal/utils/ratelimit"
	"github.com/yasinhessnawi1/timeguard/migrations"
	"github.com/yasinhessnawi1/timeguard/scripts"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Timesheet *handlers.TimesheetHandler
	Security  *handlers.SecurityHandler
	Report    *handlers.ReportHandler
}

// AuthProviders contains all authentication providers for the application.
type AuthProviders struct {
	// JWTService handles JWT token generation and validation
	JWTService *auth.JWTService

	// PasswordCfg contains password hashing configuration
	PasswordCfg *auth.PasswordConfig
}

// repositories holds the storage collaborators.
type repositories struct {
	users      repository.UserRepository
	timesheets repository.TimesheetRepository
	blacklist  repository.IPBlacklistRepository
	whitelist  repository.IPWhitelistRepository
	uaRules    repository.UARuleRepository
	accessLogs repository.AccessLogRepository
	reports    repository.ReportJobRepository
}

// services holds the business services.
type services struct {
	auth        *service.AuthService
	timesheet   *service.TimesheetService
	reputation  *service.ReputationService
	uaMatcher   *service.UAMatcher
	uaRules     *service.UARuleService
	reports     *service.ReportService
	maintenance *service.MaintenanceService
}

// Server represents the TimeGuard API server.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	router        chi.Router
	authProviders *AuthProviders
	repos         *repositories
	services      *services
	hub           *broadcast.Hub
	geo           geoip.Filter
	admission     *middleware.Admission
	audit         *middleware.Audit
	httpServer    *http.Server

	stopBackground context.CancelFunc
}

// NewServer connects to the database, applies pending migrations and seeds,
// and builds the server around the connection.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	if err := scripts.NewSeeder(db).SeedDatabase(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return New(cfg, db)
}

// New builds a server around an open connection pool.
func New(cfg *config.AppConfig, db *database.Pool) (*Server, error) {
	s := &Server{
		Config: cfg,
		Db:     db,
	}

	s.setupAuthProviders()
	s.setupRepositories()
	if err := s.setupServices(); err != nil {
		return nil, fmt.Errorf("failed to set up services: %w", err)
	}
	s.setupAdmission()
	s.setupHandlers()
	s.SetupRoutes()

	idle := cfg.Server.IdleTimeout
	if idle <= 0 {
		idle = constants.DefaultIdleTimeout
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s, nil
}

func (s *Server) setupAuthProviders() {
	s.authProviders = &AuthProviders{
		JWTService:  auth.NewJWTService(&s.Config.JWT),
		PasswordCfg: auth.ConfigFromAppConfig(s.Config),
	}
}

func (s *Server) setupRepositories() {
	s.repos = &repositories{
		users:      repository.NewUserRepository(s.Db),
		timesheets: repository.NewTimesheetRepository(s.Db),
		blacklist:  repository.NewIPBlacklistRepository(s.Db),
		whitelist:  repository.NewIPWhitelistRepository(s.Db),
		uaRules:    repository.NewUARuleRepository(s.Db),
		accessLogs: repository.NewAccessLogRepository(s.Db),
		reports:    repository.NewReportJobRepository(s.Db),
	}
}

func (s *Server) setupServices() error {
	if s.authProviders == nil || s.authProviders.JWTService == nil {
		return fmt.Errorf("JWT service not initialized")
	}

	s.hub = broadcast.NewHub(s.Config.Timesheet.HeartbeatInterval)

	uaMatcher := service.NewUAMatcher(s.repos.uaRules, s.Config.Security.UARuleCacheTTL)
	reputation := service.NewReputationService(s.repos.blacklist, s.repos.whitelist)

	s.services = &services{
		auth: service.NewAuthService(
			s.repos.users,
			s.authProviders.JWTService,
			s.authProviders.PasswordCfg,
			int64(s.Config.JWT.Expiry.Seconds()),
		),
		timesheet: service.NewTimesheetService(
			s.repos.timesheets,
			service.NewTimesheetValidator(s.Config.Timesheet.MaxShiftMinutes),
			s.hub,
		),
		reputation:  reputation,
		uaMatcher:   uaMatcher,
		uaRules:     service.NewUARuleService(s.repos.uaRules, uaMatcher),
		reports:     service.NewReportService(s.repos.reports),
		maintenance: service.NewMaintenanceService(s.Config.Maintenance, s.Db, s.repos.accessLogs, reputation),
	}

	return nil
}

// setupAdmission builds the audit recorder and the admission pipeline.
func (s *Server) setupAdmission() {
	sec := &s.Config.Security

	s.geo = geoip.New(sec)
	general := ratelimit.NewStore(constants.RateLimitCategoryGeneral,
		ratelimit.Rate{Capacity: sec.RateLimitCapacity, Interval: sec.RateLimitInterval},
		sec.RateLimitMaxKeys, sec.RateLimitIdleTTL)
	login := ratelimit.NewStore(constants.RateLimitCategoryLogin,
		ratelimit.Rate{Capacity: sec.LoginLimitCapacity, Interval: sec.LoginLimitInterval},
		sec.RateLimitMaxKeys, sec.RateLimitIdleTTL)

	s.admission = middleware.NewAdmission(sec, s.geo, s.services.reputation, s.services.uaMatcher, general, login)
	s.audit = middleware.NewAudit(s.repos.accessLogs, sec.TrustProxyHeaders).
		WithRequestLog(s.Config.Logging.RequestLog)
}

func (s *Server) setupHandlers() {
	s.Handlers = &Handlers{
		Health: handlers.NewHealthHandler(s.Db, s.Config.App.Version, s.Config.App.Environment),
		Auth:   handlers.NewAuthHandler(s.services.auth),
		Timesheet: handlers.NewTimesheetHandler(s.services.timesheet, s.hub,
			broadcast.NewUpgrader(s.Config.CORS.AllowedOrigins)),
		Security: handlers.NewSecurityHandler(s.services.reputation, s.services.uaRules, s.repos.accessLogs),
		Report:   handlers.NewReportHandler(s.services.reports),
	}
}

// StartBackground bootstraps the administrator account and starts the
// stream heartbeat and the maintenance scheduler. Start calls it; tests call
// it directly.
func (s *Server) StartBackground(ctx context.Context) error {
	sec := s.Config.Security
	if err := s.services.auth.EnsureAdmin(ctx, sec.AdminUsername, sec.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.stopBackground = cancel

	go s.hub.Run(ctx)

	if err := s.services.maintenance.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to start maintenance tasks: %w", err)
	}
	return nil
}

// Start runs the HTTP server until it fails or a shutdown signal arrives.
// SIGHUP rotates the log file.
func (s *Server) Start() error {
	if err := s.StartBackground(context.Background()); err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	rotate := make(chan os.Signal, 1)
	signal.Notify(rotate, syscall.SIGHUP)
	defer signal.Stop(rotate)

	for {
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-rotate:
			if err := utils.RotateLogs(); err != nil {
				log.Error().Err(err).Msg("Failed to rotate log file")
			}
		case sig := <-shutdown:
			return s.gracefulStop(sig)
		}
	}
}

func (s *Server) gracefulStop(sig os.Signal) error {
	log.Info().
		Str("signal", sig.String()).
		Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		if closeErr := s.httpServer.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close server")
		}
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	return nil
}

// Shutdown stops background work, closes the live streams, drains in-flight
// requests and releases the database and geo database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopBackground != nil {
		s.stopBackground()
	}
	if s.services != nil && s.services.maintenance != nil {
		s.services.maintenance.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	if s.geo != nil {
		if err := s.geo.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close geo-IP database")
		}
	}

	s.Db.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// RunMaintenanceTask runs one maintenance task immediately.
func (s *Server) RunMaintenanceTask(ctx context.Context, name string) error {
	return s.services.maintenance.RunTask(ctx, name)
}

// MaintenanceTasks returns the names of the registered maintenance tasks.
func (s *Server) MaintenanceTasks() []string {
	return s.services.maintenance.Tasks()
}
