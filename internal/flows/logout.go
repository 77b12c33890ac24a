package flows

import "context"

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Env
}

// RunLogout clears every session artifact in one store call.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	deps.defaults()
	if deps.Store == nil {
		return deps.Errors.NotReady
	}
	uid := userID(ctx, deps.Store)
	if err := deps.Store.ClearSession(ctx); err != nil {
		deps.EmitAudit(ctx, deps.Events.Logout, false, uid, nil, err, nil)
		return deps.persistErr(err)
	}
	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, uid, nil, nil, nil)
	return nil
}
