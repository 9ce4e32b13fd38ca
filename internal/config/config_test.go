package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBackendURL = "https://api.bumdes.example/api"

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "INSIGHT_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "INSIGHT_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "INSIGHT_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "INSIGHT_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "INSIGHT_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "INSIGHT_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "INSIGHT_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "parses zero", key: "INSIGHT_TEST_INT_ZERO", setVal: strPtr("0"), fallback: 99, want: 0},
		{name: "errors on non-numeric", key: "INSIGHT_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "INSIGHT_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "INSIGHT_TEST_FLOAT_UNSET", setVal: nil, fallback: 2.5, want: 2.5},
		{name: "parses integer", key: "INSIGHT_TEST_FLOAT_INT", setVal: strPtr("20"), fallback: 0, want: 20},
		{name: "parses fraction", key: "INSIGHT_TEST_FLOAT_FRAC", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "errors on text", key: "INSIGHT_TEST_FLOAT_NAN", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "INSIGHT_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "INSIGHT_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses composite", key: "INSIGHT_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "parses zero", key: "INSIGHT_TEST_DUR_ZERO", setVal: strPtr("0s"), fallback: 5 * time.Second, want: 0},
		{name: "errors on invalid", key: "INSIGHT_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "INSIGHT_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("INSIGHT_TEST_LIST", " https://a.example , ,https://b.example")

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("INSIGHT_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("INSIGHT_TEST_LIST_UNSET", []string{"x"}))
}

// ---------------------------------------------------------------------------
// Load()
// ---------------------------------------------------------------------------

func TestLoad_MissingBackendURL(t *testing.T) {
	// All defaults apply; backend URL is empty => must fail.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSIGHT_BACKEND_URL is required")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		errMsg string
	}{
		{name: "non-numeric DB port", key: "INSIGHT_DB_PORT", value: "abc", errMsg: "INSIGHT_DB_PORT"},
		{name: "non-numeric redis DB", key: "INSIGHT_REDIS_DB", value: "one", errMsg: "INSIGHT_REDIS_DB"},
		{name: "bad read timeout", key: "INSIGHT_SERVER_READ_TIMEOUT", value: "soon", errMsg: "INSIGHT_SERVER_READ_TIMEOUT"},
		{name: "bad rate limit", key: "INSIGHT_RATE_LIMIT_RPS", value: "lots", errMsg: "INSIGHT_RATE_LIMIT_RPS"},
		{name: "bad page size", key: "INSIGHT_BACKEND_PAGE_SIZE", value: "big", errMsg: "INSIGHT_BACKEND_PAGE_SIZE"},
		{name: "bad fanout width", key: "INSIGHT_FANOUT_WIDTH", value: "wide", errMsg: "INSIGHT_FANOUT_WIDTH"},
		{name: "bad cache ttl", key: "INSIGHT_CACHE_TTL", value: "300", errMsg: "INSIGHT_CACHE_TTL"},
		{name: "bad log level", key: "INSIGHT_LOG_LEVEL", value: "loud", errMsg: "INSIGHT_LOG_LEVEL"},
		{name: "unknown time zone", key: "INSIGHT_TIMEZONE", value: "Mars/Olympus", errMsg: "INSIGHT_TIMEZONE"},
		{name: "relative backend URL", key: "INSIGHT_BACKEND_URL", value: "/api", errMsg: "absolute http(s) URL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("INSIGHT_BACKEND_URL", testBackendURL)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INSIGHT_BACKEND_URL", testBackendURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Empty(t, cfg.Redis.Addr, "cache is disabled by default")
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 100, cfg.Backend.PageSize)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Analytics.FanoutWidth)
	assert.Equal(t, 5*time.Minute, cfg.Analytics.CacheTTL)
	assert.Equal(t, "Asia/Jakarta", cfg.Analytics.Timezone)
	require.NotNil(t, cfg.Analytics.Location)
	assert.Equal(t, "Asia/Jakarta", cfg.Analytics.Location.String())
	assert.Equal(t, zerolog.InfoLevel, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_AllCustomValues(t *testing.T) {
	t.Setenv("INSIGHT_BACKEND_URL", testBackendURL)
	t.Setenv("INSIGHT_BACKEND_TOKEN", "tok")
	t.Setenv("INSIGHT_BACKEND_PAGE_SIZE", "250")
	t.Setenv("INSIGHT_BACKEND_RPS", "0")
	t.Setenv("INSIGHT_BACKEND_BURST", "2")
	t.Setenv("INSIGHT_BACKEND_TIMEOUT", "5s")
	t.Setenv("INSIGHT_REDIS_ADDR", "cache:6379")
	t.Setenv("INSIGHT_REDIS_DB", "3")
	t.Setenv("INSIGHT_SERVER_ADDR", ":9090")
	t.Setenv("INSIGHT_CORS_ORIGINS", "https://vendor.example")
	t.Setenv("INSIGHT_RATE_LIMIT_RPS", "1.5")
	t.Setenv("INSIGHT_RATE_LIMIT_BURST", "3")
	t.Setenv("INSIGHT_FANOUT_WIDTH", "8")
	t.Setenv("INSIGHT_CACHE_TTL", "0s")
	t.Setenv("INSIGHT_COMPUTE_TIMEOUT", "30s")
	t.Setenv("INSIGHT_TIMEZONE", "UTC")
	t.Setenv("INSIGHT_LOG_LEVEL", "debug")
	t.Setenv("INSIGHT_LOG_FORMAT", "TEXT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Backend.Token)
	assert.Equal(t, 250, cfg.Backend.PageSize)
	assert.Zero(t, cfg.Backend.RPS)
	assert.Equal(t, 2, cfg.Backend.Burst)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://vendor.example"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 1.5, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, 3, cfg.Server.RateLimitBurst)
	assert.Equal(t, 8, cfg.Analytics.FanoutWidth)
	assert.Zero(t, cfg.Analytics.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Analytics.ComputeTimeout)
	assert.Equal(t, time.UTC.String(), cfg.Analytics.Location.String())
	assert.Equal(t, zerolog.DebugLevel, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "default dev values",
			cfg: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "insight",
				Password: "", DBName: "bumdes_vendor", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=insight password= dbname=bumdes_vendor sslmode=disable",
		},
		{
			name: "production values",
			cfg: DatabaseConfig{
				Host: "db.prod", Port: 5433, User: "reader",
				Password: "p@ss!", DBName: "vendor", SSLMode: "require",
			},
			want: "host=db.prod port=5433 user=reader password=p@ss! dbname=vendor sslmode=require",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

// ---------------------------------------------------------------------------
// validate() direct tests
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	// validBase returns a Config that passes validation.
	validBase := func() *Config {
		return &Config{
			Database: DatabaseConfig{Port: 5432, MaxConns: 10, SSLMode: "require"},
			Server: ServerConfig{
				ReadTimeout:    10 * time.Second,
				WriteTimeout:   time.Minute,
				RateLimitRPS:   5,
				RateLimitBurst: 10,
			},
			Backend: BackendConfig{
				URL:      testBackendURL,
				Token:    "tok",
				PageSize: 100,
				RPS:      20,
				Burst:    5,
				Timeout:  15 * time.Second,
			},
			Analytics: AnalyticsConfig{
				FanoutWidth:    5,
				CacheTTL:       time.Minute,
				ComputeTimeout: time.Minute,
				Timezone:       "UTC",
			},
			Log: LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "ftp backend", mutate: func(c *Config) { c.Backend.URL = "ftp://files.example" }, wantErr: "INSIGHT_BACKEND_URL"},
		{name: "port zero", mutate: func(c *Config) { c.Database.Port = 0 }, wantErr: "INSIGHT_DB_PORT"},
		{name: "port too high", mutate: func(c *Config) { c.Database.Port = 70000 }, wantErr: "INSIGHT_DB_PORT"},
		{name: "no conns", mutate: func(c *Config) { c.Database.MaxConns = 0 }, wantErr: "INSIGHT_DB_MAX_CONNS"},
		{name: "zero read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: "INSIGHT_SERVER_READ_TIMEOUT"},
		{name: "zero write timeout", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }, wantErr: "INSIGHT_SERVER_WRITE_TIMEOUT"},
		{name: "zero rate limit", mutate: func(c *Config) { c.Server.RateLimitRPS = 0 }, wantErr: "INSIGHT_RATE_LIMIT_RPS"},
		{name: "zero burst", mutate: func(c *Config) { c.Server.RateLimitBurst = 0 }, wantErr: "INSIGHT_RATE_LIMIT_BURST"},
		{name: "page size too large", mutate: func(c *Config) { c.Backend.PageSize = 5000 }, wantErr: "INSIGHT_BACKEND_PAGE_SIZE"},
		{name: "negative backend rps", mutate: func(c *Config) { c.Backend.RPS = -1 }, wantErr: "INSIGHT_BACKEND_RPS"},
		{name: "zero backend burst", mutate: func(c *Config) { c.Backend.Burst = 0 }, wantErr: "INSIGHT_BACKEND_BURST"},
		{name: "zero backend timeout", mutate: func(c *Config) { c.Backend.Timeout = 0 }, wantErr: "INSIGHT_BACKEND_TIMEOUT"},
		{name: "zero fanout", mutate: func(c *Config) { c.Analytics.FanoutWidth = 0 }, wantErr: "INSIGHT_FANOUT_WIDTH"},
		{name: "negative ttl", mutate: func(c *Config) { c.Analytics.CacheTTL = -time.Second }, wantErr: "INSIGHT_CACHE_TTL"},
		{name: "zero compute timeout", mutate: func(c *Config) { c.Analytics.ComputeTimeout = 0 }, wantErr: "INSIGHT_COMPUTE_TIMEOUT"},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "INSIGHT_LOG_FORMAT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validBase()
			tc.mutate(cfg)

			err := cfg.validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, cfg.Analytics.Location)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
