package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/Reales09/reserve-sub002/internal/api"
	"github.com/Reales09/reserve-sub002/permission"
	"github.com/Reales09/reserve-sub002/session"
)

// Metrics carries the metric IDs flows increment. The root package owns
// the ID space.
type Metrics struct {
	LoginSuccess                int
	LoginFailure                int
	LoginPasswordChangeRequired int
	PermissionsLoaded           int
	PermissionsFailed           int
	BusinessSwitchAccepted      int
	BusinessSwitchRejected      int
	BusinessTokenSuccess        int
	BusinessTokenFailure        int
	Logout                      int
	PasswordChangeSuccess       int
	PasswordChangeFailure       int
	LateResultDiscarded         int
}

// Events carries the audit event names flows emit.
type Events struct {
	LoginSuccess           string
	LoginFailure           string
	PasswordChangeRequired string
	PermissionsLoaded      string
	PermissionsFailed      string
	Logout                 string
	BusinessSwitched       string
	BusinessSwitchRejected string
	BusinessToken          string
	PasswordChanged        string
	LateResultDiscarded    string
}

// Errors carries host-level errors. The constructor funcs build the typed
// errors of the root package so flows never import it.
type Errors struct {
	NotReady          error
	NotAuthenticated  error
	SessionChanged    error
	InvalidBusinessID error
	SessionPersist    error

	AuthFailure       func(message string) error
	MembershipFailure func(businessID int64, reason string) error
	MapAPIError       func(err error) error
}

// Backend is the slice of the HTTP client flows call.
type Backend struct {
	Login            func(context.Context, api.LoginRequest) (*api.LoginResponse, error)
	RolesPermissions func(context.Context, string) (*permission.Payload, error)
	ChangePassword   func(context.Context, string, api.ChangePasswordRequest) error
	BusinessToken    func(context.Context, string, int64) (string, error)
}

// Env is shared by every flow.
type Env struct {
	Store   *session.Store
	Backend Backend
	Now     func() time.Time

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID int64, businessID *int64, err error, meta func() map[string]string)
	Warn      func(ctx context.Context, msg string, args ...any)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

func (e *Env) defaults() {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.MetricInc == nil {
		e.MetricInc = func(int) {}
	}
	if e.EmitAudit == nil {
		e.EmitAudit = func(context.Context, string, bool, int64, *int64, error, func() map[string]string) {}
	}
	if e.Warn == nil {
		e.Warn = func(context.Context, string, ...any) {}
	}
	if e.Errors.MapAPIError == nil {
		e.Errors.MapAPIError = func(err error) error { return err }
	}
}

func (e *Env) ready() bool {
	return e.Store != nil &&
		e.Errors.AuthFailure != nil &&
		e.Errors.MembershipFailure != nil
}

func (e *Env) persistErr(err error) error {
	return fmt.Errorf("%w: %v", e.Errors.SessionPersist, err)
}

// sameSession reports whether the stored token still equals token. A
// result computed for a token that has since been replaced or removed must
// not be applied.
func (e *Env) sameSession(ctx context.Context, token string) bool {
	current, _ := e.Store.GetToken(ctx)
	return current == token
}

func (e *Env) discardLate(ctx context.Context, op string) error {
	e.MetricInc(e.Metrics.LateResultDiscarded)
	e.EmitAudit(ctx, e.Events.LateResultDiscarded, false, 0, nil, e.Errors.SessionChanged, func() map[string]string {
		return map[string]string{"operation": op}
	})
	e.Warn(ctx, "discarding result for a replaced session", "operation", op)
	return e.Errors.SessionChanged
}

func userID(ctx context.Context, store *session.Store) int64 {
	if u, ok := store.GetUser(ctx); ok {
		return u.ID
	}
	return 0
}
