package console

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Reales09/reserve-sub002/internal/logx"
	"github.com/Reales09/reserve-sub002/navigation"
	"gopkg.in/yaml.v3"
)

// Config is the complete console configuration. Obtain defaults from
// [DefaultConfig], adjust, and hand the result to [Builder.WithConfig].
type Config struct {
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
	Navigation NavigationConfig `yaml:"navigation"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig points the console at its REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// BusinessTokenAuthScheme is "raw" (default) or "bearer".
	BusinessTokenAuthScheme string `yaml:"business_token_auth_scheme"`
	UserAgent               string `yaml:"user_agent"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// Session backends selectable from configuration.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendCookie = "cookie"
)

// SessionConfig selects and tunes the session backend.
type SessionConfig struct {
	// Backend is one of memory, file, redis or cookie. Redis and cookie
	// sessions are bound per request by [Console.RequestStore].
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`

	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`

	CookieNamePrefix string `yaml:"cookie_name_prefix"`
	CookieDomain     string `yaml:"cookie_domain"`
	CookieSecure     bool   `yaml:"cookie_secure"`
	// CookieSameSite is lax, strict or none.
	CookieSameSite string `yaml:"cookie_same_site"`
	// CookieSigningKey is the HMAC secret cookie values are signed with.
	CookieSigningKey string `yaml:"cookie_signing_key"`

	FilePath     string `yaml:"file_path"`
	IdentityPath string `yaml:"identity_path"`
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// LogConfig configures the slog logger built when none is supplied.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NavigationConfig holds the routes login outcomes redirect to.
type NavigationConfig struct {
	HomeRoute           string `yaml:"home_route"`
	LoginRoute          string `yaml:"login_route"`
	PasswordChangeRoute string `yaml:"password_change_route"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:                 15 * time.Second,
			BusinessTokenAuthScheme: "raw",
			UserAgent:               "reserve-console",
		},
		Session: SessionConfig{
			Backend:          BackendMemory,
			TTL:              7 * 24 * time.Hour,
			RedisPrefix:      "rcs",
			CookieNamePrefix: "",
			CookieSecure:     true,
			CookieSameSite:   "lax",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Navigation: NavigationConfig{
			HomeRoute:           "/home",
			LoginRoute:          "/login",
			PasswordChangeRoute: "/change-password",
		},
	}
}

// DefaultConfig returns the defaults every loaded file is layered over.
func DefaultConfig() Config {
	return defaultConfig()
}

// LoadConfig reads a YAML file over [DefaultConfig] and validates it.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg := defaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the console cannot run with.
func (c *Config) Validate() error {
	// API
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}
	switch c.API.BusinessTokenAuthScheme {
	case "raw", "bearer":
	default:
		return errors.New("API BusinessTokenAuthScheme must be 'raw' or 'bearer'")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	switch c.Session.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Session.FilePath == "" || c.Session.IdentityPath == "" {
			return errors.New("file session backend requires FilePath and IdentityPath")
		}
	case BackendRedis:
		if c.Session.RedisPrefix == "" {
			return errors.New("redis session backend requires RedisPrefix")
		}
	case BackendCookie:
		if len(c.Session.CookieSigningKey) < 32 {
			return errors.New("cookie session backend requires a CookieSigningKey of at least 32 bytes")
		}
		if _, err := parseSameSite(c.Session.CookieSameSite); err != nil {
			return err
		}
		if c.Session.CookieSameSite == "none" && !c.Session.CookieSecure {
			return errors.New("CookieSameSite 'none' requires CookieSecure")
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Log
	if !logx.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unsupported log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	// Navigation
	if !strings.HasPrefix(c.Navigation.HomeRoute, "/") {
		return errors.New("Navigation HomeRoute must be an absolute path")
	}
	if !strings.HasPrefix(c.Navigation.PasswordChangeRoute, "/") {
		return errors.New("Navigation PasswordChangeRoute must be an absolute path")
	}
	if c.Navigation.LoginRoute != "" && !strings.HasPrefix(c.Navigation.LoginRoute, "/") {
		return errors.New("Navigation LoginRoute must be an absolute path")
	}
	if c.Navigation.PasswordChangeRoute == c.Navigation.HomeRoute {
		return errors.New("Navigation PasswordChangeRoute must differ from HomeRoute")
	}

	return nil
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unsupported CookieSameSite %q", v)
	}
}

/*
====================================
LINT
====================================
*/

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	// LintInfo flags a setting worth knowing about.
	LintInfo LintSeverity = iota
	// LintWarn flags a setting that weakens the deployment.
	LintWarn
)

// LintWarning is one finding of [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports valid but questionable settings. It never fails; run
// [Config.Validate] for hard errors.
func (c *Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, msg string) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("api_plaintext", LintWarn, "backend is reached over plain http; tokens travel unencrypted")
	}
	if c.API.Timeout > time.Minute {
		add("api_timeout_long", LintInfo, "backend timeout above one minute keeps logins hanging")
	}
	if c.API.BusinessTokenAuthScheme == "raw" {
		add("business_token_raw_auth", LintInfo, "business token exchange sends the session token without a Bearer prefix")
	}
	if c.Session.TTL > 30*24*time.Hour {
		add("session_ttl_long", LintWarn, "session values outlive 30 days")
	}
	if c.Session.Backend == BackendCookie && !c.Session.CookieSecure {
		add("cookie_insecure", LintWarn, "session cookies are sent over plain http")
	}
	if c.Session.Backend == BackendMemory {
		add("session_memory_backend", LintInfo, "sessions are lost on restart")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintInfo, "a full audit buffer blocks session operations")
	}
	if strings.EqualFold(c.Log.Level, "debug") {
		add("log_debug", LintInfo, "debug logging is enabled")
	}
	return out
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// navigationModules returns the module table a Console gates on.
func navigationModules(custom []navigation.Module) []navigation.Module {
	if len(custom) > 0 {
		return custom
	}
	return navigation.DefaultModules()
}
