package flows

import (
	"context"

	"github.com/Reales09/reserve-sub002/internal/api"
)

// ChangePasswordDeps captures password change dependencies.
type ChangePasswordDeps struct {
	Env
	HomeRoute string
}

// RunChangePassword rotates the password of the stored session, clears
// the pending change flag and loads permissions, completing a login that
// ended in [OutcomePasswordChangeRequired].
func RunChangePassword(ctx context.Context, current, next string, deps ChangePasswordDeps) (*LoginResult, error) {
	deps.defaults()
	if !deps.ready() || deps.Backend.ChangePassword == nil {
		return nil, deps.Errors.NotReady
	}
	if !deps.Store.IsTokenValid(ctx) {
		return nil, deps.Errors.NotAuthenticated
	}
	token, _ := deps.Store.GetToken(ctx)
	uid := userID(ctx, deps.Store)

	if current == "" || next == "" {
		deps.MetricInc(deps.Metrics.PasswordChangeFailure)
		return nil, deps.Errors.AuthFailure("current and new password are required")
	}
	if current == next {
		deps.MetricInc(deps.Metrics.PasswordChangeFailure)
		return nil, deps.Errors.AuthFailure("new password must differ from the current one")
	}

	err := deps.Backend.ChangePassword(ctx, token, api.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
	if err != nil {
		mapped := deps.Errors.MapAPIError(err)
		deps.MetricInc(deps.Metrics.PasswordChangeFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordChanged, false, uid, nil, mapped, nil)
		return nil, mapped
	}
	if !deps.sameSession(ctx, token) {
		return nil, deps.discardLate(ctx, "change_password")
	}

	user, ok := deps.Store.GetUser(ctx)
	if ok && user.PasswordChangeRequired {
		user.PasswordChangeRequired = false
		if err := deps.Store.SetUser(ctx, user); err != nil {
			return nil, deps.persistErr(err)
		}
	}
	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChanged, true, uid, nil, nil, nil)

	loaded, err := loadPermissions(ctx, token, &deps.Env)
	if err != nil {
		return nil, err
	}
	result := &LoginResult{
		Outcome:           OutcomeReady,
		Redirect:          deps.HomeRoute,
		PermissionsLoaded: loaded,
	}
	if exp, ok := deps.Store.TokenExpiry(ctx); ok {
		result.ExpiresAt = exp
	}
	if u, ok := deps.Store.GetUser(ctx); ok {
		result.User = u
	}
	return result, nil
}
