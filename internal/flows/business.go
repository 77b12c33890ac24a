package flows

import (
	"context"

	"github.com/Reales09/reserve-sub002/session"
)

// BusinessDeps captures business scope dependencies.
type BusinessDeps struct {
	Env
}

// RunSwitchBusiness makes id the active business. Membership is enforced
// by the store; on success the theme follows the new business and a
// business token issued for another business is dropped.
func RunSwitchBusiness(ctx context.Context, id int64, deps BusinessDeps) error {
	deps.defaults()
	if !deps.ready() {
		return deps.Errors.NotReady
	}
	if id < 0 {
		return deps.Errors.InvalidBusinessID
	}
	if !deps.Store.HasToken(ctx) {
		return deps.Errors.NotAuthenticated
	}
	uid := userID(ctx, deps.Store)

	if !deps.Store.SwitchBusiness(ctx, id) {
		reason := "not_a_member"
		if _, known := deps.Store.GetBusinessIDs(ctx); !known {
			reason = "membership_unknown"
		}
		err := deps.Errors.MembershipFailure(id, reason)
		deps.MetricInc(deps.Metrics.BusinessSwitchRejected)
		deps.EmitAudit(ctx, deps.Events.BusinessSwitchRejected, false, uid, &id, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	if err := applyTheme(ctx, id, &deps.Env); err != nil {
		return err
	}
	if bt, ok := deps.Store.GetBusinessToken(ctx); ok && bt.BusinessID != id {
		if err := deps.Store.RemoveBusinessToken(ctx); err != nil {
			return deps.persistErr(err)
		}
	}

	deps.MetricInc(deps.Metrics.BusinessSwitchAccepted)
	deps.EmitAudit(ctx, deps.Events.BusinessSwitched, true, uid, &id, nil, nil)
	return nil
}

func applyTheme(ctx context.Context, id int64, env *Env) error {
	list, _ := env.Store.GetBusinessesData(ctx)
	b, found := session.FindBusiness(list, id)
	if found && !b.Colors().IsZero() {
		if err := env.Store.SetBusinessColors(ctx, b.Colors()); err != nil {
			return env.persistErr(err)
		}
		return nil
	}
	if err := env.Store.RemoveBusinessColors(ctx); err != nil {
		return env.persistErr(err)
	}
	return nil
}

// RunBusinessToken exchanges the session token for a token scoped to
// businessID. When the membership set is known and does not contain
// businessID the call fails without reaching the backend.
func RunBusinessToken(ctx context.Context, businessID int64, deps BusinessDeps) (session.BusinessToken, error) {
	deps.defaults()
	if !deps.ready() || deps.Backend.BusinessToken == nil {
		return session.BusinessToken{}, deps.Errors.NotReady
	}
	if businessID < 0 {
		return session.BusinessToken{}, deps.Errors.InvalidBusinessID
	}
	token, ok := deps.Store.GetToken(ctx)
	if !ok {
		return session.BusinessToken{}, deps.Errors.NotAuthenticated
	}
	uid := userID(ctx, deps.Store)

	if member, known := deps.Store.IsMember(ctx, businessID); known && !member {
		err := deps.Errors.MembershipFailure(businessID, "not_a_member")
		deps.MetricInc(deps.Metrics.BusinessTokenFailure)
		deps.EmitAudit(ctx, deps.Events.BusinessToken, false, uid, &businessID, err, func() map[string]string {
			return map[string]string{"reason": "not_a_member"}
		})
		return session.BusinessToken{}, err
	}

	scoped, err := deps.Backend.BusinessToken(ctx, token, businessID)
	if err != nil {
		mapped := deps.Errors.MapAPIError(err)
		deps.MetricInc(deps.Metrics.BusinessTokenFailure)
		deps.EmitAudit(ctx, deps.Events.BusinessToken, false, uid, &businessID, mapped, nil)
		return session.BusinessToken{}, mapped
	}
	if !deps.sameSession(ctx, token) {
		return session.BusinessToken{}, deps.discardLate(ctx, "business_token")
	}

	deps.MetricInc(deps.Metrics.BusinessTokenSuccess)
	deps.EmitAudit(ctx, deps.Events.BusinessToken, true, uid, &businessID, nil, nil)
	return session.BusinessToken{BusinessID: businessID, Token: scoped}, nil
}

// RunActivateBusiness switches to id and stores a fresh business token for
// it. The token is stored only while id is still the active business.
func RunActivateBusiness(ctx context.Context, id int64, deps BusinessDeps) (session.BusinessToken, error) {
	if err := RunSwitchBusiness(ctx, id, deps); err != nil {
		return session.BusinessToken{}, err
	}
	bt, err := RunBusinessToken(ctx, id, deps)
	if err != nil {
		return session.BusinessToken{}, err
	}
	deps.defaults()
	if active, ok := deps.Store.GetActiveBusiness(ctx); !ok || active != id {
		return session.BusinessToken{}, deps.discardLate(ctx, "activate_business")
	}
	if err := deps.Store.SetBusinessToken(ctx, bt); err != nil {
		return session.BusinessToken{}, deps.persistErr(err)
	}
	return bt, nil
}
