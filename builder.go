package console

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Reales09/reserve-sub002/internal/api"
	internalaudit "github.com/Reales09/reserve-sub002/internal/audit"
	"github.com/Reales09/reserve-sub002/internal/logx"
	"github.com/Reales09/reserve-sub002/jwt"
	"github.com/Reales09/reserve-sub002/navigation"
	"github.com/Reales09/reserve-sub002/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Console]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config

	store      *session.Store
	backend    session.Backend
	redis      redis.UniversalClient
	httpClient *http.Client
	auditSink  AuditSink
	logger     *slog.Logger
	modules    []navigation.Module
	now        func() time.Time

	built bool
}

// New returns a builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the default session store, overriding
// Config.Session.Backend.
func (b *Builder) WithStore(store *session.Store) *Builder {
	b.store = store
	return b
}

// WithBackend sets the default session backend; the store around it logs
// through the console logger.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis supplies the client for the redis session backend. Without it
// Build dials Config.Session.RedisAddr.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the transport used to reach the backend.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink sets where audit events go when Config.Audit is enabled.
// The default sink logs them.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger replaces the logger built from Config.Log.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithModules replaces [navigation.DefaultModules].
func (b *Builder) WithModules(modules []navigation.Module) *Builder {
	b.modules = modules
	return b
}

// WithClock overrides time.Now for token expiry checks and audit stamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready [Console].
func (b *Builder) Build() (*Console, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logx.New(cfg.Log.Level, cfg.Log.Format, nil)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	gate, err := navigation.NewGate(navigationModules(b.modules))
	if err != nil {
		return nil, err
	}

	c := &Console{
		config:  cfg,
		logger:  logger,
		now:     now,
		gate:    gate,
		metrics: NewMetrics(cfg.Metrics),
	}

	sink := b.auditSink
	if sink == nil {
		sink = NewLogSink(logger.With("stream", "audit"))
	}
	c.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(ev AuditEvent) {
			logger.Warn("audit event dropped", "event_type", ev.EventType)
		},
	}, sink)

	client, err := api.New(api.Config{
		BaseURL:             cfg.API.BaseURL,
		Timeout:             cfg.API.Timeout,
		BusinessTokenScheme: api.AuthScheme(cfg.API.BusinessTokenAuthScheme),
		UserAgent:           cfg.API.UserAgent,
		HTTPClient:          b.httpClient,
		Observe:             c.observeBackend,
	})
	if err != nil {
		c.audit.Close()
		return nil, err
	}
	c.client = client

	if err := b.bindSessions(c); err != nil {
		c.audit.Close()
		return nil, err
	}

	b.built = true
	return c, nil
}

// bindSessions wires the default store, or the per-request machinery of
// the redis and cookie backends.
func (b *Builder) bindSessions(c *Console) error {
	cfg := c.config.Session
	storeOpts := []session.Option{session.WithLogger(c.logger), session.WithClock(c.now)}

	switch {
	case b.store != nil:
		c.store = b.store
		return nil
	case b.backend != nil:
		c.store = session.NewStore(b.backend, storeOpts...)
		return nil
	}

	switch cfg.Backend {
	case BackendMemory:
		c.store = session.NewStore(session.NewMemoryBackend(), storeOpts...)
	case BackendFile:
		identity, err := session.LoadOrCreateIdentity(cfg.IdentityPath)
		if err != nil {
			return err
		}
		c.store = session.NewStore(session.NewFileBackend(cfg.FilePath, identity), storeOpts...)
	case BackendRedis:
		client := b.redis
		if client == nil {
			if cfg.RedisAddr == "" {
				return errors.New("redis session backend requires a redis client or RedisAddr")
			}
			client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			c.ownsRedis = true
		}
		c.redis = client
	case BackendCookie:
		signer, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.TTL,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte(cfg.CookieSigningKey),
			Issuer:        "reserve-console",
		})
		if err != nil {
			return fmt.Errorf("cookie signer: %w", err)
		}
		sameSite, err := parseSameSite(cfg.CookieSameSite)
		if err != nil {
			return err
		}
		c.cookieSigner = signer
		c.cookieConfig = session.CookieConfig{
			NamePrefix: cfg.CookieNamePrefix,
			Path:       "/",
			Domain:     cfg.CookieDomain,
			MaxAge:     cfg.TTL,
			Secure:     cfg.CookieSecure,
			SameSite:   sameSite,
		}
	}
	return nil
}
