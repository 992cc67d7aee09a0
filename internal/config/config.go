package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Nav      NavConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings. The auth rate limit is keyed per
// client IP and applies to the unauthenticated endpoints; the general rate
// limit is keyed per resolved tenant.
type ServerConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSOrigins        []string
	RateLimitRPS       float64
	RateLimitBurst     int
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// NavConfig holds navigation and route-guard settings.
type NavConfig struct {
	LoginPath        string
	DefaultRoute     string
	PermissionPolicy string // "any" or "all"
	GuardLocation    string // menu location the guard checks against
	SessionTTL       time.Duration
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("TESSERA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TESSERA_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TESSERA_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("TESSERA_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("TESSERA_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TESSERA_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TESSERA_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("TESSERA_NAV_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("TESSERA_CORS_ORIGINS", []string{"http://localhost:5173"})

	rateLimitRPS, err := getEnvFloat("TESSERA_RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimitBurst, err := getEnvInt("TESSERA_RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authRateLimitRPS, err := getEnvFloat("TESSERA_AUTH_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authRateLimitBurst, err := getEnvInt("TESSERA_AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("TESSERA_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("TESSERA_DB_USER", "tessera"),
			Password: getEnv("TESSERA_DB_PASSWORD", ""),
			DBName:   getEnv("TESSERA_DB_NAME", "tessera_dev"),
			SSLMode:  getEnv("TESSERA_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TESSERA_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TESSERA_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("TESSERA_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:               getEnv("TESSERA_SERVER_ADDR", ":8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSOrigins:        corsOrigins,
			RateLimitRPS:       rateLimitRPS,
			RateLimitBurst:     rateLimitBurst,
			AuthRateLimitRPS:   authRateLimitRPS,
			AuthRateLimitBurst: authRateLimitBurst,
		},
		Nav: NavConfig{
			LoginPath:        getEnv("TESSERA_NAV_LOGIN_PATH", "/login"),
			DefaultRoute:     getEnv("TESSERA_NAV_DEFAULT_ROUTE", "/dashboard"),
			PermissionPolicy: getEnv("TESSERA_NAV_PERMISSION_POLICY", "any"),
			GuardLocation:    getEnv("TESSERA_NAV_GUARD_LOCATION", "sidebar"),
			SessionTTL:       sessionTTL,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("TESSERA_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TESSERA_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("TESSERA_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TESSERA_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 || c.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("TESSERA_DB_MAX_CONNS must be 1-%d, got %d", math.MaxInt32, c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("TESSERA_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("TESSERA_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TESSERA_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TESSERA_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("TESSERA_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("TESSERA_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Server.AuthRateLimitRPS <= 0 {
		return fmt.Errorf("TESSERA_AUTH_RATE_LIMIT_RPS must be positive, got %g", c.Server.AuthRateLimitRPS)
	}
	if c.Server.AuthRateLimitBurst < 1 {
		return fmt.Errorf("TESSERA_AUTH_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.AuthRateLimitBurst)
	}

	if c.Nav.PermissionPolicy != "any" && c.Nav.PermissionPolicy != "all" {
		return fmt.Errorf("TESSERA_NAV_PERMISSION_POLICY must be 'any' or 'all', got %q", c.Nav.PermissionPolicy)
	}
	switch c.Nav.GuardLocation {
	case "header", "sidebar", "footer", "custom":
	default:
		return fmt.Errorf("TESSERA_NAV_GUARD_LOCATION must be a menu location, got %q", c.Nav.GuardLocation)
	}
	if !strings.HasPrefix(c.Nav.LoginPath, "/") {
		return fmt.Errorf("TESSERA_NAV_LOGIN_PATH must start with '/', got %q", c.Nav.LoginPath)
	}
	if !strings.HasPrefix(c.Nav.DefaultRoute, "/") {
		return fmt.Errorf("TESSERA_NAV_DEFAULT_ROUTE must start with '/', got %q", c.Nav.DefaultRoute)
	}
	if c.Nav.SessionTTL <= 0 {
		return fmt.Errorf("TESSERA_NAV_SESSION_TTL must be positive, got %s", c.Nav.SessionTTL)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
