package console

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Reales09/reserve-sub002/internal/api"
	internalaudit "github.com/Reales09/reserve-sub002/internal/audit"
	"github.com/Reales09/reserve-sub002/internal/flows"
	"github.com/Reales09/reserve-sub002/internal/logx"
	"github.com/Reales09/reserve-sub002/jwt"
	"github.com/Reales09/reserve-sub002/navigation"
	"github.com/Reales09/reserve-sub002/permission"
	"github.com/Reales09/reserve-sub002/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Console is the session and authorization core of the reservation
// console. It is safe for concurrent use; per-call session state lives in
// the store resolved for the call (see [WithSessionStore]).
type Console struct {
	config  Config
	logger  *slog.Logger
	now     func() time.Time
	client  *api.Client
	gate    *navigation.Gate
	audit   *internalaudit.Dispatcher
	metrics *Metrics

	store *session.Store

	redis     redis.UniversalClient
	ownsRedis bool

	cookieSigner *jwt.Manager
	cookieConfig session.CookieConfig
}

var flowMetrics = flows.Metrics{
	LoginSuccess:                int(MetricLoginSuccess),
	LoginFailure:                int(MetricLoginFailure),
	LoginPasswordChangeRequired: int(MetricLoginPasswordChangeRequired),
	PermissionsLoaded:           int(MetricPermissionsLoaded),
	PermissionsFailed:           int(MetricPermissionsFailed),
	BusinessSwitchAccepted:      int(MetricBusinessSwitchAccepted),
	BusinessSwitchRejected:      int(MetricBusinessSwitchRejected),
	BusinessTokenSuccess:        int(MetricBusinessTokenSuccess),
	BusinessTokenFailure:        int(MetricBusinessTokenFailure),
	Logout:                      int(MetricLogout),
	PasswordChangeSuccess:       int(MetricPasswordChangeSuccess),
	PasswordChangeFailure:       int(MetricPasswordChangeFailure),
	LateResultDiscarded:         int(MetricLateResultDiscarded),
}

var flowEvents = flows.Events{
	LoginSuccess:           internalaudit.EventLoginSuccess,
	LoginFailure:           internalaudit.EventLoginFailure,
	PasswordChangeRequired: internalaudit.EventPasswordChangeRequired,
	PermissionsLoaded:      internalaudit.EventPermissionsLoaded,
	PermissionsFailed:      internalaudit.EventPermissionsFailed,
	Logout:                 internalaudit.EventLogout,
	BusinessSwitched:       internalaudit.EventBusinessSwitched,
	BusinessSwitchRejected: internalaudit.EventBusinessSwitchRejected,
	BusinessToken:          internalaudit.EventBusinessToken,
	PasswordChanged:        internalaudit.EventPasswordChanged,
	LateResultDiscarded:    internalaudit.EventLateResultDiscarded,
}

var flowErrors = flows.Errors{
	NotReady:          ErrConsoleNotReady,
	NotAuthenticated:  ErrNotAuthenticated,
	SessionChanged:    ErrSessionChanged,
	InvalidBusinessID: ErrInvalidBusinessID,
	SessionPersist:    ErrSessionPersist,
	AuthFailure:       authFailure,
	MembershipFailure: membershipFailure,
	MapAPIError:       mapAPIError,
}

// Close flushes pending audit events and releases the redis client the
// console dialed itself.
func (c *Console) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
	if c.ownsRedis && c.redis != nil {
		_ = c.redis.Close()
	}
}

// Config returns the configuration the console was built with.
func (c *Console) Config() Config {
	return c.config
}

// Logger returns the console logger.
func (c *Console) Logger() *slog.Logger {
	return c.logger
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (c *Console) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot copies the console counters.
func (c *Console) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Console) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Console) observeBackend(endpoint string, d time.Duration, err error) {
	c.metrics.Observe(MetricBackendLatency, d)
	if err != nil {
		c.metricInc(MetricBackendError)
		c.logger.Debug("backend call failed", "endpoint", endpoint, "duration", d, "error", err)
	}
}

// sessionStore resolves the store for ctx: the one bound with
// [WithSessionStore], else the console default.
func (c *Console) sessionStore(ctx context.Context) (*session.Store, error) {
	if c == nil {
		return nil, ErrConsoleNotReady
	}
	if store, ok := SessionStoreFromContext(ctx); ok {
		return store, nil
	}
	if c.store == nil {
		return nil, ErrConsoleNotReady
	}
	return c.store, nil
}

func (c *Console) env(store *session.Store) flows.Env {
	return flows.Env{
		Store: store,
		Backend: flows.Backend{
			Login:            c.client.Login,
			RolesPermissions: c.client.RolesPermissions,
			ChangePassword:   c.client.ChangePassword,
			BusinessToken:    c.client.BusinessToken,
		},
		Now:       c.now,
		MetricInc: func(id int) { c.metricInc(MetricID(id)) },
		EmitAudit: c.emitAudit,
		Warn: func(ctx context.Context, msg string, args ...any) {
			c.logger.WarnContext(ctx, msg, args...)
		},
		Metrics: flowMetrics,
		Events:  flowEvents,
		Errors:  flowErrors,
	}
}

// RequestStore returns the session store for one HTTP exchange. Cookie
// sessions live in signed cookies on r and w; redis sessions are keyed by
// a session id cookie, issued on first use. Memory and file backends share
// the console default store.
func (c *Console) RequestStore(w http.ResponseWriter, r *http.Request) (*session.Store, error) {
	if c == nil {
		return nil, ErrConsoleNotReady
	}
	opts := []session.Option{session.WithLogger(c.logger), session.WithClock(c.now)}

	switch {
	case c.cookieSigner != nil:
		return session.NewStore(session.NewCookieBackend(c.cookieSigner, c.cookieConfig, w, r), opts...), nil
	case c.redis != nil:
		sid := c.sessionID(w, r)
		backend := session.NewRedisBackend(c.redis, c.config.Session.RedisPrefix, sid, c.config.Session.TTL)
		return session.NewStore(backend, opts...), nil
	case c.store != nil:
		return c.store, nil
	default:
		return nil, ErrConsoleNotReady
	}
}

func (c *Console) sessionIDCookie() string {
	return c.config.Session.CookieNamePrefix + "session_id"
}

func (c *Console) sessionID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(c.sessionIDCookie()); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	sid := session.NewSessionID()
	sameSite, _ := parseSameSite(c.config.Session.CookieSameSite)
	http.SetCookie(w, &http.Cookie{
		Name:     c.sessionIDCookie(),
		Value:    sid,
		Path:     "/",
		Domain:   c.config.Session.CookieDomain,
		MaxAge:   int(c.config.Session.TTL / time.Second),
		Secure:   c.config.Session.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	})
	return sid
}

// Login authenticates email/password against the backend and persists the
// session. A user who must change the password gets
// [OutcomePasswordChangeRequired] and no permissions.
func (c *Console) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	result, err := flows.RunLogin(ctx, email, password, flows.LoginDeps{
		Env:                 c.env(store),
		PasswordChangeRoute: c.config.Navigation.PasswordChangeRoute,
		HomeRoute:           c.config.Navigation.HomeRoute,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "login failed", "error", err)
		return nil, err
	}
	if token, ok := store.GetToken(ctx); ok {
		c.logger.DebugContext(ctx, "session established", "user_id", result.User.ID, logx.Token("token", token), "outcome", int(result.Outcome))
	}
	return result, nil
}

// ChangePassword rotates the password of the current session and finishes
// a pending login.
func (c *Console) ChangePassword(ctx context.Context, current, next string) (*LoginResult, error) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	return flows.RunChangePassword(ctx, current, next, flows.ChangePasswordDeps{
		Env:       c.env(store),
		HomeRoute: c.config.Navigation.HomeRoute,
	})
}

// RefreshPermissions re-fetches the role/permission payload. It reports
// whether a payload was applied; fetch failures keep the previous payload
// and are not errors.
func (c *Console) RefreshPermissions(ctx context.Context) (bool, error) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return false, err
	}
	return flows.RunRefreshPermissions(ctx, flows.RefreshDeps{Env: c.env(store)})
}

// Logout clears every session artifact.
func (c *Console) Logout(ctx context.Context) error {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}
	return flows.RunLogout(ctx, flows.LogoutDeps{Env: c.env(store)})
}

// Touch slides the expiry of the session forward. Only expiring backends
// (redis) do anything.
func (c *Console) Touch(ctx context.Context) error {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}
	if err := store.Touch(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionPersist, err)
	}
	return nil
}

// IsAuthenticated reports whether a non-expired token is stored.
func (c *Console) IsAuthenticated(ctx context.Context) bool {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return false
	}
	return store.IsTokenValid(ctx)
}

// State reports where the stored session is in the login lifecycle.
func (c *Console) State(ctx context.Context) State {
	store, err := c.sessionStore(ctx)
	if err != nil || !store.IsTokenValid(ctx) {
		return StateAnonymous
	}
	if user, ok := store.GetUser(ctx); ok && user.PasswordChangeRequired {
		return StatePasswordChangeRequired
	}
	if _, ok := store.GetPermissions(ctx); ok {
		return StateAuthenticatedWithPermissions
	}
	return StateAuthenticatedNoPermissions
}

// Session returns the stored session when its token is valid.
func (c *Console) Session(ctx context.Context) (*Session, bool) {
	store, err := c.sessionStore(ctx)
	if err != nil || !store.IsTokenValid(ctx) {
		return nil, false
	}
	token, _ := store.GetToken(ctx)
	s := &Session{Token: token}
	if user, ok := store.GetUser(ctx); ok {
		s.User = user
	}
	if exp, ok := store.TokenExpiry(ctx); ok {
		s.ExpiresAt = exp
	}
	return s, true
}

// Evaluator answers permission questions for the current session. Without
// a valid token or a cached payload every check is denied.
func (c *Console) Evaluator(ctx context.Context) *permission.Evaluator {
	store, err := c.sessionStore(ctx)
	if err != nil || !store.IsTokenValid(ctx) {
		return permission.NewEvaluator(nil)
	}
	payload, _ := store.GetPermissions(ctx)
	return permission.NewEvaluator(payload)
}

// Menu returns the navigation modules enabled for the current session, or
// nil without a valid token.
func (c *Console) Menu(ctx context.Context) []Module {
	if !c.IsAuthenticated(ctx) {
		return nil
	}
	return c.gate.Enabled(c.Evaluator(ctx))
}

// CanAccess reports whether module id is enabled for the current session.
func (c *Console) CanAccess(ctx context.Context, id string) bool {
	if !c.IsAuthenticated(ctx) {
		return false
	}
	return c.gate.Allows(c.Evaluator(ctx), id)
}

// Gate returns the navigation table the console gates on.
func (c *Console) Gate() *navigation.Gate {
	return c.gate
}
