// Package config reads the redirect service's settings from the
// environment. Every variable has a default; Load validates the result.
package config

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the origins allowed to call the admin API.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig configures trace export over OTLP/gRPC.
type OTELConfig struct {
	Enabled     bool
	Endpoint    string  // host:port of the collector
	Insecure    bool    // plaintext gRPC
	ServiceName string  // service.name resource attribute
	SampleRatio float64 // root span sampling, 0..1
}

// NATSConfig defines the optional hit event publisher.
type NATSConfig struct {
	URL     string // NATS_URL; empty disables publishing
	Subject string // NATS_HIT_SUBJECT
}

// Config is the full set of settings read by cmd/server.
type Config struct {
	// HTTP server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug, release or test

	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string // admin API prefix; slugs under it are reserved

	// Storage
	DatabaseURL string // sqlite path, file: DSN, postgres:// or libsql:// URL

	// Redirect path
	CacheCapacity    int           // max cached slugs (>= 1)
	CacheLoadTimeout time.Duration // per-fetch deadline, 0 = none

	// Hit pipeline
	HitQueueCapacity int           // bounded queue size (>= 1)
	HitWriteTimeout  time.Duration // per-hit persistence deadline
	ShutdownTimeout  time.Duration // server drain + hit drain budget

	// Hit events (optional)
	NATS NATSConfig

	CORS     CORSConfig
	Security SecurityConfig

	// Replay window of an Idempotency-Key on admin creates.
	IdempotencyTTL time.Duration

	OTEL OTELConfig
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + strings.TrimSpace(c.Port) }

// MustLoad is Load for main: an invalid environment panics.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. Every failed rule is
// reported, not only the first.
func Load() (Config, error) {
	cfg := fromEnv()
	cfg.normalize()
	return cfg, cfg.validate()
}

// fromEnv reads every setting, falling back to the default when a variable
// is unset, empty, or fails to parse.
func fromEnv() Config {
	return Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DatabaseURL: getenv("DATABASE_URL", "redirect.db"),

		CacheCapacity:    getint("CACHE_CAPACITY", 10_000),
		CacheLoadTimeout: getdur("CACHE_LOAD_TIMEOUT", 5*time.Second),

		HitQueueCapacity: getint("HIT_QUEUE_CAPACITY", 10_000),
		HitWriteTimeout:  getdur("HIT_WRITE_TIMEOUT", 5*time.Second),
		ShutdownTimeout:  getdur("SHUTDOWN_TIMEOUT", 30*time.Second),

		NATS: NATSConfig{
			URL:     strings.TrimSpace(getenv("NATS_URL", "")),
			Subject: getenv("NATS_HIT_SUBJECT", "redirect.hits"),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-redirect-service"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal", "panic"}

// rule is one validation check; broken reports whether cfg violates it.
type rule struct {
	broken func(c Config) bool
	msg    string
}

var rules = []rule{
	{func(c Config) bool { return !slices.Contains(logLevels, c.LogLevel) },
		"LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
	{func(c Config) bool { return strings.TrimSpace(c.Port) == "" },
		"PORT must not be empty"},
	{func(c Config) bool {
		return c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0
	}, "timeouts must be positive durations"},
	{func(c Config) bool { return c.MaxHeaderBytes <= 0 },
		"MAX_HEADER_BYTES must be > 0"},
	{func(c Config) bool { return c.APIBasePath == "/" },
		"API_BASE_PATH must not be '/'; the redirect path owns the root"},
	{func(c Config) bool { return strings.TrimSpace(c.DatabaseURL) == "" },
		"DATABASE_URL must not be empty"},
	{func(c Config) bool { return c.CacheCapacity < 1 },
		"CACHE_CAPACITY must be >= 1"},
	{func(c Config) bool { return c.CacheLoadTimeout < 0 },
		"CACHE_LOAD_TIMEOUT must be >= 0"},
	{func(c Config) bool { return c.HitQueueCapacity < 1 },
		"HIT_QUEUE_CAPACITY must be >= 1"},
	{func(c Config) bool { return c.HitWriteTimeout <= 0 || c.ShutdownTimeout <= 0 },
		"HIT_WRITE_TIMEOUT and SHUTDOWN_TIMEOUT must be positive durations"},
	{func(c Config) bool { return c.NATS.URL != "" && strings.TrimSpace(c.NATS.Subject) == "" },
		"NATS_HIT_SUBJECT must not be empty when NATS_URL is set"},
	{func(c Config) bool { return c.Security.HSTSMaxAge < 0 },
		"HSTS_MAX_AGE must be >= 0"},
	{func(c Config) bool { return c.IdempotencyTTL <= 0 },
		"IDEMPOTENCY_TTL must be > 0"},
	{func(c Config) bool { return c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 },
		"OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
}

func (c Config) validate() error {
	var errs []error
	for _, r := range rules {
		if r.broken(c) {
			errs = append(errs, errors.New(r.msg))
		}
	}
	return errors.Join(errs...)
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// lookup parses the trimmed value of k, keeping def when k is blank or
// does not parse.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if x, err := parse(v); err == nil {
		return x
	}
	return def
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

var errNotBool = errors.New("not a boolean")

func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing one.
// Blank means "/".
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
