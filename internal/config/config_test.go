package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestMain clears variables a developer shell commonly exports.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DATABASE_URL", "NATS_URL", "LOG_LEVEL", "API_BASE_PATH"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func setenvs(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Config{
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		GinMode:           "release",
		LogLevel:          "info",
		APIBasePath:       "/api/v1",
		DatabaseURL:       "redirect.db",
		CacheCapacity:     10_000,
		CacheLoadTimeout:  5 * time.Second,
		HitQueueCapacity:  10_000,
		HitWriteTimeout:   5 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		NATS:              NATSConfig{Subject: "redirect.hits"},
		Security:          SecurityConfig{HSTSMaxAge: 180 * 24 * time.Hour},
		IdempotencyTTL:    24 * time.Hour,
		OTEL: OTELConfig{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "go-redirect-service",
			SampleRatio: 1,
		},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("defaults mismatch:\n got %+v\nwant %+v", cfg, want)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	setenvs(t, map[string]string{
		"PORT":                        "9090",
		"READ_TIMEOUT":                "2s",
		"GIN_MODE":                    "Chaos",
		"LOG_LEVEL":                   "WARNING",
		"LOG_PRETTY":                  "yes",
		"SWAGGER_ENABLED":             "on",
		"API_BASE_PATH":               "admin/v2/",
		"DATABASE_URL":                "libsql://redirects.turso.io?authToken=t",
		"CACHE_CAPACITY":              "lots",
		"CACHE_LOAD_TIMEOUT":          "0s",
		"HIT_QUEUE_CAPACITY":          "250",
		"HIT_WRITE_TIMEOUT":           "soon",
		"NATS_URL":                    "  nats://nats:4222 ",
		"NATS_HIT_SUBJECT":            "hits.v1",
		"CORS_ALLOWED_ORIGINS":        " https://admin.example.com , , http://localhost:3000 ",
		"ENABLE_HSTS":                 "TRUE",
		"IDEMPOTENCY_TTL":             "1h",
		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_INSECURE": "off",
		"OTEL_TRACES_SAMPLER_ARG":     "0.1",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"port", cfg.Addr() == ":9090"},
		{"read timeout", cfg.ReadTimeout == 2*time.Second},
		{"unknown gin mode falls back", cfg.GinMode == "release"},
		{"warning becomes warn", cfg.LogLevel == "warn"},
		{"pretty and swagger", cfg.LogPretty && cfg.SwaggerEnabled},
		{"base path normalized", cfg.APIBasePath == "/admin/v2"},
		{"database url", strings.HasPrefix(cfg.DatabaseURL, "libsql://")},
		{"bad cache capacity keeps default", cfg.CacheCapacity == 10_000},
		{"zero load timeout allowed", cfg.CacheLoadTimeout == 0},
		{"hit queue capacity", cfg.HitQueueCapacity == 250},
		{"bad write timeout keeps default", cfg.HitWriteTimeout == 5*time.Second},
		{"nats url trimmed", cfg.NATS.URL == "nats://nats:4222" && cfg.NATS.Subject == "hits.v1"},
		{"cors origins", reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://admin.example.com", "http://localhost:3000"})},
		{"hsts", cfg.Security.EnableHSTS},
		{"idempotency ttl", cfg.IdempotencyTTL == time.Hour},
		{"otel", cfg.OTEL.Enabled && !cfg.OTEL.Insecure && cfg.OTEL.SampleRatio == 0.1},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s: unexpected config %+v", c.name, cfg)
		}
	}
}

func TestLoad_ValidationRules(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{map[string]string{"IDLE_TIMEOUT": "-1s"}, "timeouts must be positive"},
		{map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{map[string]string{"API_BASE_PATH": " / "}, "API_BASE_PATH"},
		{map[string]string{"DATABASE_URL": "  "}, "DATABASE_URL"},
		{map[string]string{"CACHE_CAPACITY": "0"}, "CACHE_CAPACITY"},
		{map[string]string{"CACHE_LOAD_TIMEOUT": "-5ms"}, "CACHE_LOAD_TIMEOUT"},
		{map[string]string{"HIT_QUEUE_CAPACITY": "-1"}, "HIT_QUEUE_CAPACITY"},
		{map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "SHUTDOWN_TIMEOUT"},
		{map[string]string{"NATS_URL": "nats://localhost:4222", "NATS_HIT_SUBJECT": " "}, "NATS_HIT_SUBJECT"},
		{map[string]string{"HSTS_MAX_AGE": "-1h"}, "HSTS_MAX_AGE"},
		{map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{map[string]string{"OTEL_TRACES_SAMPLER_ARG": "-0.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			setenvs(t, tc.env)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v; want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoad_ReportsEveryBrokenRule(t *testing.T) {
	setenvs(t, map[string]string{
		"CACHE_CAPACITY":     "0",
		"HIT_QUEUE_CAPACITY": "0",
		"IDEMPOTENCY_TTL":    "-1s",
	})
	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"CACHE_CAPACITY", "HIT_QUEUE_CAPACITY", "IDEMPOTENCY_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestMustLoad(t *testing.T) {
	t.Run("valid defaults", func(t *testing.T) {
		if cfg := MustLoad(); cfg.APIBasePath != "/api/v1" {
			t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
		}
	})
	t.Run("panics on invalid", func(t *testing.T) {
		t.Setenv("HIT_QUEUE_CAPACITY", "0")
		defer func() {
			if recover() == nil {
				t.Fatalf("MustLoad should panic")
			}
		}()
		_ = MustLoad()
	})
}

func TestEnvHelpers(t *testing.T) {
	setenvs(t, map[string]string{
		"T_EMPTY": "",
		"T_STR":   "sqlite",
		"T_INT":   "42",
		"T_FLOAT": "0.25",
		"T_DUR":   "150ms",
		"T_JUNK":  "n/a",
	})

	if getenv("T_EMPTY", "d") != "d" || getenv("T_STR", "d") != "sqlite" {
		t.Fatalf("getenv mismatch")
	}
	if getint("T_INT", 0) != 42 || getint("T_JUNK", 7) != 7 {
		t.Fatalf("getint mismatch")
	}
	if getfloat("T_FLOAT", 0) != 0.25 || getfloat("T_JUNK", 1.5) != 1.5 {
		t.Fatalf("getfloat mismatch")
	}
	if getdur("T_DUR", 0) != 150*time.Millisecond || getdur("T_JUNK", time.Second) != time.Second {
		t.Fatalf("getdur mismatch")
	}
	if !getbool("T_JUNK", true) || getbool("T_EMPTY", false) {
		t.Fatalf("getbool should keep the default for unrecognized and empty values")
	}
}

func TestGetbool_Spellings(t *testing.T) {
	for v, want := range map[string]bool{
		"1": true, "true": true, "TRUE": true, " yes ": true, "Y": true, "On": true,
		"0": false, "false": false, "No": false, " n ": false, "off": false, "OFF": false,
	} {
		t.Setenv("T_BOOL", v)
		if got := getbool("T_BOOL", !want); got != want {
			t.Fatalf("getbool(%q) = %v; want %v", v, got, want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	if splitCSV("") != nil {
		t.Fatalf("empty input should give nil")
	}
	got := splitCSV(" https://a.example , ,https://b.example,")
	if !reflect.DeepEqual(got, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":         "/",
		" / ":      "/",
		"api":      "/api",
		"/api/v1/": "/api/v1",
		"api/v1//": "/api/v1",
		"///":      "/",
		" /admin ": "/admin",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
