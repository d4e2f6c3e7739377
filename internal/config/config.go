package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App          AppSettings         `yaml:"app"`
	Database     DatabaseSettings    `yaml:"database"`
	Server       ServerSettings      `yaml:"server"`
	JWT          JWTSettings         `yaml:"jwt"`
	Logging      LoggingSettings     `yaml:"logging"`
	CORS         CORSSettings        `yaml:"cors"`
	PasswordHash HashSettings        `yaml:"password_hash"`
	Security     SecuritySettings    `yaml:"security"`
	Timesheet    TimesheetSettings   `yaml:"timesheet"`
	Maintenance  MaintenanceSettings `yaml:"maintenance"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// JWTSettings contains JWT authentication settings
type JWTSettings struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingSettings contains logging configuration.
// When File is set, output is also written to a rotated log file.
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains password hashing settings
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// SecuritySettings configures the admission pipeline.
type SecuritySettings struct {
	GeoIPDatabase       string        `yaml:"geoip_database" env:"GEOIP_DATABASE"`
	AllowedCountries    []string      `yaml:"allowed_countries" env:"GEOIP_ALLOWED_COUNTRIES"`
	GeoCacheSize        int           `yaml:"geo_cache_size" env:"GEOIP_CACHE_SIZE"`
	GeoCacheTTL         time.Duration `yaml:"geo_cache_ttl" env:"GEOIP_CACHE_TTL"`
	RateLimitCapacity   int           `yaml:"rate_limit_capacity" env:"RATE_LIMIT_CAPACITY"`
	RateLimitInterval   time.Duration `yaml:"rate_limit_interval" env:"RATE_LIMIT_INTERVAL"`
	LoginLimitCapacity  int           `yaml:"login_limit_capacity" env:"LOGIN_LIMIT_CAPACITY"`
	LoginLimitInterval  time.Duration `yaml:"login_limit_interval" env:"LOGIN_LIMIT_INTERVAL"`
	RateLimitMaxKeys    int           `yaml:"rate_limit_max_keys" env:"RATE_LIMIT_MAX_KEYS"`
	RateLimitIdleTTL    time.Duration `yaml:"rate_limit_idle_ttl" env:"RATE_LIMIT_IDLE_TTL"`
	UARuleCacheTTL      time.Duration `yaml:"ua_rule_cache_ttl" env:"UA_RULE_CACHE_TTL"`
	TrustProxyHeaders   bool          `yaml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
	ExemptPaths         []string      `yaml:"exempt_paths" env:"ADMISSION_EXEMPT_PATHS"`
	AdminUsername       string        `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword       string        `yaml:"admin_password" env:"ADMIN_PASSWORD"`
	LoginRetryAfterHint time.Duration `yaml:"login_retry_after" env:"LOGIN_RETRY_AFTER"`
}

// GeoEnabled reports whether a geo-IP database is configured.
func (ss *SecuritySettings) GeoEnabled() bool {
	return strings.TrimSpace(ss.GeoIPDatabase) != ""
}

// TimesheetSettings configures the timesheet engine.
type TimesheetSettings struct {
	MaxShiftMinutes   int           `yaml:"max_shift_minutes" env:"TIMESHEET_MAX_SHIFT_MINUTES"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"TIMESHEET_HEARTBEAT_INTERVAL"`
}

// MaintenanceSettings configures scheduled background jobs.
type MaintenanceSettings struct {
	HealthCheckSchedule    string `yaml:"health_check_schedule" env:"MAINTENANCE_HEALTH_SCHEDULE"`
	AccessLogPurgeSchedule string `yaml:"access_log_purge_schedule" env:"MAINTENANCE_PURGE_SCHEDULE"`
	ReconcileSchedule      string `yaml:"reconcile_schedule" env:"MAINTENANCE_RECONCILE_SCHEDULE"`
	AccessLogRetentionDays int    `yaml:"access_log_retention_days" env:"ACCESS_LOG_RETENTION_DAYS"`
}

// ConnectionString returns the PostgreSQL connection string
func (dbs *DatabaseSettings) ConnectionString() string {
	sslMode := dbs.SSLMode
	if sslMode == "" {
		sslMode = constants.DefaultDBSSLMode
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s %s",
		dbs.Host, dbs.Port, dbs.User, dbs.Name, sslMode, constants.PostgresConnectTimeout)
	if dbs.Password != "" {
		dsn += fmt.Sprintf(" password=%s", dbs.Password)
	}
	return dsn
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// A missing file is not an error: env and defaults may be enough.
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = config

	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = constants.DefaultIdleTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Port == 0 {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}
	if config.Logging.MaxSizeMB == 0 {
		config.Logging.MaxSizeMB = constants.DefaultLogMaxSizeMB
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAgeDays == 0 {
		config.Logging.MaxAgeDays = constants.DefaultLogMaxAgeDays
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	if config.PasswordHash.Memory == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}

	setSecurityDefaults(&config.Security)

	if config.Timesheet.MaxShiftMinutes == 0 {
		config.Timesheet.MaxShiftMinutes = constants.DefaultMaxShiftMinutes
	}
	if config.Timesheet.HeartbeatInterval == 0 {
		config.Timesheet.HeartbeatInterval = constants.DefaultHeartbeatInterval
	}

	if config.Maintenance.HealthCheckSchedule == "" {
		config.Maintenance.HealthCheckSchedule = constants.DefaultHealthCheckSchedule
	}
	if config.Maintenance.AccessLogPurgeSchedule == "" {
		config.Maintenance.AccessLogPurgeSchedule = constants.DefaultAccessLogPurgeSchedule
	}
	if config.Maintenance.ReconcileSchedule == "" {
		config.Maintenance.ReconcileSchedule = constants.DefaultReconcileSchedule
	}
	if config.Maintenance.AccessLogRetentionDays == 0 {
		config.Maintenance.AccessLogRetentionDays = constants.DefaultAccessLogRetentionDays
	}
}

func setSecurityDefaults(s *SecuritySettings) {
	if len(s.AllowedCountries) == 0 {
		s.AllowedCountries = []string{constants.DefaultAllowedCountry}
	}
	if s.GeoCacheSize == 0 {
		s.GeoCacheSize = constants.DefaultGeoCacheSize
	}
	if s.GeoCacheTTL == 0 {
		s.GeoCacheTTL = constants.DefaultGeoCacheTTL
	}
	if s.RateLimitCapacity == 0 {
		s.RateLimitCapacity = constants.DefaultRateLimitCapacity
	}
	if s.RateLimitInterval == 0 {
		s.RateLimitInterval = constants.DefaultRateLimitInterval
	}
	if s.LoginLimitCapacity == 0 {
		s.LoginLimitCapacity = constants.DefaultLoginRateLimitCapacity
	}
	if s.LoginLimitInterval == 0 {
		s.LoginLimitInterval = constants.DefaultLoginLimitInterval
	}
	if s.RateLimitMaxKeys == 0 {
		s.RateLimitMaxKeys = constants.DefaultRateLimitMaxKeys
	}
	if s.RateLimitIdleTTL == 0 {
		s.RateLimitIdleTTL = constants.DefaultRateLimitIdleTTL
	}
	if s.UARuleCacheTTL == 0 {
		s.UARuleCacheTTL = constants.DefaultUARuleCacheTTL
	}
	if s.LoginRetryAfterHint == 0 {
		s.LoginRetryAfterHint = constants.DefaultLoginRetryAfterHint
	}
	if len(s.ExemptPaths) == 0 {
		s.ExemptPaths = []string{constants.HealthPath, constants.VersionPath, constants.MetricsPath}
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if config.Database.User == "" {
		return fmt.Errorf("database user must be set")
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Security.RateLimitCapacity < 0 || config.Security.LoginLimitCapacity < 0 {
		return fmt.Errorf("rate limit capacities must not be negative")
	}

	if config.Timesheet.MaxShiftMinutes > constants.MinutesPerDay {
		return fmt.Errorf("max shift of %d minutes exceeds one day", config.Timesheet.MaxShiftMinutes)
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	logCfg := *config

	if logCfg.Database.Password != "" {
		logCfg.Database.Password = constants.LogRedactedValue
	}
	if logCfg.JWT.Secret != "" {
		logCfg.JWT.Secret = constants.LogRedactedValue
	}

	log.Info().
		Str("environment", logCfg.App.Environment).
		Str("version", logCfg.App.Version).
		Str("server", logCfg.Server.ServerAddress()).
		Str("db_host", logCfg.Database.Host).
		Int("db_port", logCfg.Database.Port).
		Str("db_name", logCfg.Database.Name).
		Str("log_level", logCfg.Logging.Level).
		Bool("geo_enabled", logCfg.Security.GeoEnabled()).
		Strs("allowed_countries", logCfg.Security.AllowedCountries).
		Int("max_shift_minutes", logCfg.Timesheet.MaxShiftMinutes).
		Msg("Configuration loaded")
}
