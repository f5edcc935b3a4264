package goSession

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full Store configuration. Build it from [DefaultConfig] or
// [LoadConfigFromEnv] and adjust fields before handing it to [Builder.WithConfig].
type Config struct {
	API        APIConfig        `envPrefix:"API_"`
	Routes     RoutesConfig     `envPrefix:"ROUTES_"`
	Credential CredentialConfig `envPrefix:"CREDENTIAL_"`
	Audit      AuditConfig      `envPrefix:"AUDIT_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
	Tracing    TracingConfig    `envPrefix:"TRACING_"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig describes the backend the gateway talks to.
type APIConfig struct {
	BaseURL string            `env:"BASE_URL"`
	Timeout time.Duration     `env:"TIMEOUT"`
	Headers map[string]string `env:"HEADERS"`

	RefreshPath string `env:"REFRESH_PATH"`
	LogoutPath  string `env:"LOGOUT_PATH"`
	// LoginPathTemplate must contain "{provider}".
	LoginPathTemplate string `env:"LOGIN_PATH_TEMPLATE"`
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the application's own views.
type RoutesConfig struct {
	LoginPath    string `env:"LOGIN"`
	HomePath     string `env:"HOME"`
	CallbackPath string `env:"CALLBACK"`
	LogoutPath   string `env:"LOGOUT"`
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialBackend selects where the bearer credential is kept.
type CredentialBackend string

const (
	CredentialMemory CredentialBackend = "memory"
	CredentialFile   CredentialBackend = "file"
	CredentialRedis  CredentialBackend = "redis"
)

// CredentialConfig configures the credential slot and the gateway stages around it.
type CredentialConfig struct {
	Backend   CredentialBackend `env:"BACKEND"`
	FilePath  string            `env:"FILE"`
	RedisAddr string            `env:"REDIS_ADDR"`
	RedisKey  string            `env:"REDIS_KEY"`
	// TTL bounds how long the redis slot keeps a credential. Zero keeps it until cleared.
	TTL time.Duration `env:"TTL"`

	// CaptureHeader, when set, stores a credential the backend returns in that header.
	CaptureHeader string `env:"CAPTURE_HEADER"`
	// DropExpired removes a JWT credential whose exp has passed before it is sent.
	DropExpired  bool          `env:"DROP_EXPIRED"`
	ExpiryLeeway time.Duration `env:"EXPIRY_LEEWAY"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// TracingConfig controls the gateway tracing stage. The tracer provider itself comes from
// Builder.WithTracerProvider or the otel global.
type TracingConfig struct {
	Enabled bool `env:"ENABLED"`
}

const maxExpiryLeeway = 2 * time.Minute

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8080",
			Timeout:           15 * time.Second,
			RefreshPath:       "/auth/refresh",
			LogoutPath:        "/auth/logout",
			LoginPathTemplate: "/auth/{provider}/login",
		},
		Routes: RoutesConfig{
			LoginPath:    "/login",
			HomePath:     "/",
			CallbackPath: "/auth/callback",
			LogoutPath:   "/logout",
		},
		Credential: CredentialConfig{
			Backend:      CredentialMemory,
			RedisKey:     "gs:credential",
			ExpiryLeeway: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}

// DefaultConfig returns a configuration for a backend on localhost:8080 with an in-memory
// credential slot.
func DefaultConfig() Config {
	return defaultConfig()
}

// LoadConfigFromEnv overlays GOSESSION_* environment variables on [DefaultConfig], e.g.
// GOSESSION_API_BASE_URL or GOSESSION_CREDENTIAL_BACKEND. Unset variables keep the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GOSESSION_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.API.Headers = maps.Clone(cfg.API.Headers)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API BaseURL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}
	if err := requireAbsolutePaths(
		"API RefreshPath", c.API.RefreshPath,
		"API LogoutPath", c.API.LogoutPath,
		"API LoginPathTemplate", c.API.LoginPathTemplate,
	); err != nil {
		return err
	}
	if !strings.Contains(c.API.LoginPathTemplate, "{provider}") {
		return errors.New("API LoginPathTemplate must contain {provider}")
	}

	// Routes
	if err := requireAbsolutePaths(
		"Routes LoginPath", c.Routes.LoginPath,
		"Routes HomePath", c.Routes.HomePath,
		"Routes CallbackPath", c.Routes.CallbackPath,
		"Routes LogoutPath", c.Routes.LogoutPath,
	); err != nil {
		return err
	}

	// Credential
	switch c.Credential.Backend {
	case CredentialMemory:
	case CredentialFile:
		if strings.TrimSpace(c.Credential.FilePath) == "" {
			return errors.New("Credential FilePath is required for the file backend")
		}
	case CredentialRedis:
		if strings.TrimSpace(c.Credential.RedisKey) == "" {
			return errors.New("Credential RedisKey must not be empty")
		}
	default:
		return fmt.Errorf("unsupported credential backend %q", c.Credential.Backend)
	}
	if c.Credential.TTL < 0 {
		return errors.New("Credential TTL must be >= 0")
	}
	if c.Credential.ExpiryLeeway < 0 || c.Credential.ExpiryLeeway > maxExpiryLeeway {
		return fmt.Errorf("Credential ExpiryLeeway must be within [0, %s]", maxExpiryLeeway)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// requireAbsolutePaths takes name/path pairs.
func requireAbsolutePaths(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !strings.HasPrefix(pairs[i+1], "/") {
			return fmt.Errorf("%s must start with /", pairs[i])
		}
	}
	return nil
}
