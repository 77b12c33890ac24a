package flows

import (
	"context"
	"slices"
	"strconv"

	"github.com/Reales09/reserve-sub002/permission"
	"github.com/Reales09/reserve-sub002/session"
)

// RefreshDeps captures permission refresh dependencies.
type RefreshDeps struct {
	Env
}

// RunRefreshPermissions re-fetches the role/permission payload of the
// stored session. It returns whether a payload was applied; a backend
// failure is reported as false with a nil error, leaving the previous
// payload in place.
func RunRefreshPermissions(ctx context.Context, deps RefreshDeps) (bool, error) {
	deps.defaults()
	if !deps.ready() || deps.Backend.RolesPermissions == nil {
		return false, deps.Errors.NotReady
	}
	if !deps.Store.IsTokenValid(ctx) {
		return false, deps.Errors.NotAuthenticated
	}
	token, _ := deps.Store.GetToken(ctx)
	return loadPermissions(ctx, token, &deps.Env)
}

// loadPermissions fetches the payload for token and applies it when token
// is still the stored session. Fetch failures are logged and reported as
// (false, nil); only a replaced session or a failed write is an error.
func loadPermissions(ctx context.Context, token string, env *Env) (bool, error) {
	if env.Backend.RolesPermissions == nil {
		return false, env.Errors.NotReady
	}
	uid := userID(ctx, env.Store)

	payload, err := env.Backend.RolesPermissions(ctx, token)
	if err != nil {
		mapped := env.Errors.MapAPIError(err)
		env.MetricInc(env.Metrics.PermissionsFailed)
		env.EmitAudit(ctx, env.Events.PermissionsFailed, false, uid, nil, mapped, nil)
		env.Warn(ctx, "loading roles and permissions failed", "error", mapped)
		return false, nil
	}

	if !env.sameSession(ctx, token) {
		return false, env.discardLate(ctx, "roles_permissions")
	}
	if err := applyPayload(ctx, payload, env); err != nil {
		return false, err
	}

	env.MetricInc(env.Metrics.PermissionsLoaded)
	env.EmitAudit(ctx, env.Events.PermissionsLoaded, true, uid, nil, nil, func() map[string]string {
		return map[string]string{
			"roles":       strconv.Itoa(len(payload.Roles)),
			"permissions": strconv.Itoa(len(payload.Permissions)),
		}
	})
	return true, nil
}

// applyPayload caches payload and replaces the stored user's roles with
// the ones it carries.
func applyPayload(ctx context.Context, payload *permission.Payload, env *Env) error {
	store := env.Store
	if err := store.SetPermissions(ctx, payload); err != nil {
		return env.persistErr(err)
	}

	user, ok := store.GetUser(ctx)
	if !ok {
		return nil
	}
	user.Roles = slices.Clone(payload.Roles)
	if payload.IsSuper && !user.IsSuperAdmin {
		user.IsSuperAdmin = true
		ids, known := store.GetBusinessIDs(ctx)
		if known && !slices.Contains(ids, session.PlatformBusinessID) {
			if err := store.SetBusinessIDs(ctx, append([]int64{session.PlatformBusinessID}, ids...)); err != nil {
				return env.persistErr(err)
			}
		}
	}
	if err := store.SetUser(ctx, user); err != nil {
		return env.persistErr(err)
	}
	return nil
}
