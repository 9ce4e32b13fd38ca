package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // INSIGHT_TIMEZONE must resolve on minimal images

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Backend   BackendConfig
	Analytics AnalyticsConfig
	Log       LogConfig
}

// DatabaseConfig holds PostgreSQL connection settings for the vendor database.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// result cache.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// BackendConfig holds settings for the BUMDes REST API.
type BackendConfig struct {
	URL      string
	Token    string //nolint:gosec // G117: API token config
	PageSize int
	RPS      float64
	Burst    int
	Timeout  time.Duration
}

// AnalyticsConfig holds aggregation settings.
type AnalyticsConfig struct {
	FanoutWidth    int
	CacheTTL       time.Duration
	ComputeTimeout time.Duration
	Timezone       string
	Location       *time.Location
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  zerolog.Level
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("INSIGHT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("INSIGHT_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("INSIGHT_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("INSIGHT_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("INSIGHT_SERVER_WRITE_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimitRPS, err := getEnvFloat("INSIGHT_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimitBurst, err := getEnvInt("INSIGHT_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pageSize, err := getEnvInt("INSIGHT_BACKEND_PAGE_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backendRPS, err := getEnvFloat("INSIGHT_BACKEND_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backendBurst, err := getEnvInt("INSIGHT_BACKEND_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backendTimeout, err := getEnvDuration("INSIGHT_BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	fanoutWidth, err := getEnvInt("INSIGHT_FANOUT_WIDTH", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cacheTTL, err := getEnvDuration("INSIGHT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	computeTimeout, err := getEnvDuration("INSIGHT_COMPUTE_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	logLevel, err := zerolog.ParseLevel(getEnv("INSIGHT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("config.Load: parsing INSIGHT_LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("INSIGHT_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("INSIGHT_DB_USER", "insight"),
			Password: getEnv("INSIGHT_DB_PASSWORD", ""),
			DBName:   getEnv("INSIGHT_DB_NAME", "bumdes_vendor"),
			SSLMode:  getEnv("INSIGHT_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("INSIGHT_REDIS_ADDR", ""),
			Password: getEnv("INSIGHT_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:           getEnv("INSIGHT_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("INSIGHT_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Backend: BackendConfig{
			URL:      getEnv("INSIGHT_BACKEND_URL", ""),
			Token:    getEnv("INSIGHT_BACKEND_TOKEN", ""),
			PageSize: pageSize,
			RPS:      backendRPS,
			Burst:    backendBurst,
			Timeout:  backendTimeout,
		},
		Analytics: AnalyticsConfig{
			FanoutWidth:    fanoutWidth,
			CacheTTL:       cacheTTL,
			ComputeTimeout: computeTimeout,
			Timezone:       getEnv("INSIGHT_TIMEZONE", "Asia/Jakarta"),
		},
		Log: LogConfig{
			Level:  logLevel,
			Format: strings.ToLower(getEnv("INSIGHT_LOG_FORMAT", "json")),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds. It also resolves the
// analytics time zone.
func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return errors.New("INSIGHT_BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INSIGHT_BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.URL)
	}
	if c.Backend.Token == "" {
		log.Warn().Msg("INSIGHT_BACKEND_TOKEN is empty; backend requests are sent unauthenticated")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("INSIGHT_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("INSIGHT_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("INSIGHT_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("INSIGHT_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("INSIGHT_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("INSIGHT_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("INSIGHT_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Backend.PageSize < 1 || c.Backend.PageSize > 1000 {
		return fmt.Errorf("INSIGHT_BACKEND_PAGE_SIZE must be 1-1000, got %d", c.Backend.PageSize)
	}
	if c.Backend.RPS < 0 {
		return fmt.Errorf("INSIGHT_BACKEND_RPS must be >= 0, got %g", c.Backend.RPS)
	}
	if c.Backend.Burst < 1 {
		return fmt.Errorf("INSIGHT_BACKEND_BURST must be >= 1, got %d", c.Backend.Burst)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("INSIGHT_BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.Analytics.FanoutWidth < 1 {
		return fmt.Errorf("INSIGHT_FANOUT_WIDTH must be >= 1, got %d", c.Analytics.FanoutWidth)
	}
	if c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("INSIGHT_CACHE_TTL must be >= 0, got %s", c.Analytics.CacheTTL)
	}
	if c.Analytics.ComputeTimeout <= 0 {
		return fmt.Errorf("INSIGHT_COMPUTE_TIMEOUT must be positive, got %s", c.Analytics.ComputeTimeout)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("INSIGHT_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return fmt.Errorf("INSIGHT_TIMEZONE: %w", err)
	}
	c.Analytics.Location = loc

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
