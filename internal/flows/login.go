package flows

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Reales09/reserve-sub002/internal/api"
	"github.com/Reales09/reserve-sub002/jwt"
	"github.com/Reales09/reserve-sub002/session"
)

// Outcome is the terminal state of a successful login.
type Outcome int

const (
	// OutcomeReady means the session is usable for the main application.
	OutcomeReady Outcome = iota + 1
	// OutcomePasswordChangeRequired means the caller must route to the
	// password change flow before anything else.
	OutcomePasswordChangeRequired
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Outcome           Outcome
	Redirect          string
	User              *session.User
	ExpiresAt         time.Time
	PermissionsLoaded bool
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Env
	PasswordChangeRoute string
	HomeRoute           string
}

// RunLogin authenticates against the backend and materializes the session.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	deps.defaults()
	if !deps.ready() || deps.Backend.Login == nil {
		return nil, deps.Errors.NotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		err := deps.Errors.AuthFailure("email and password are required")
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, 0, nil, err, func() map[string]string {
			return map[string]string{"reason": "empty_credentials"}
		})
		return nil, err
	}

	issuedFor, _ := deps.Store.GetToken(ctx)

	resp, err := deps.Backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		mapped := deps.Errors.MapAPIError(err)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, 0, nil, mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, mapped
	}

	if !deps.sameSession(ctx, issuedFor) {
		return nil, deps.discardLate(ctx, "login")
	}

	user := mapUser(resp)
	if err := persistLogin(ctx, resp.Token, user, &deps.Env); err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, nil, err, nil)
		return nil, err
	}

	result := &LoginResult{User: user}
	if exp, err := jwt.ExpiresAt(resp.Token); err == nil {
		result.ExpiresAt = exp
	}

	if user.PasswordChangeRequired {
		deps.MetricInc(deps.Metrics.LoginPasswordChangeRequired)
		deps.EmitAudit(ctx, deps.Events.PasswordChangeRequired, true, user.ID, nil, nil, nil)
		result.Outcome = OutcomePasswordChangeRequired
		result.Redirect = deps.PasswordChangeRoute
		return result, nil
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, nil, nil, func() map[string]string {
		return map[string]string{"businesses": strconv.Itoa(len(user.Businesses))}
	})

	loaded, err := loadPermissions(ctx, resp.Token, &deps.Env)
	if err != nil {
		return nil, err
	}
	result.PermissionsLoaded = loaded
	if loaded {
		if u, ok := deps.Store.GetUser(ctx); ok {
			result.User = u
		}
	}
	result.Outcome = OutcomeReady
	result.Redirect = deps.HomeRoute
	return result, nil
}

func mapUser(resp *api.LoginResponse) *session.User {
	user := &session.User{
		ID:                     resp.User.ID,
		Name:                   resp.User.Name,
		Email:                  resp.User.Email,
		AvatarURL:              resp.User.AvatarURL,
		IsSuperAdmin:           resp.IsSuperAdmin,
		PasswordChangeRequired: resp.RequirePasswordChange,
		Businesses:             make([]session.BusinessMembership, 0, len(resp.Businesses)),
	}
	for _, b := range resp.Businesses {
		user.Businesses = append(user.Businesses, session.BusinessMembership{
			ID:              b.ID,
			Name:            b.Name,
			Code:            b.Code,
			LogoURL:         b.LogoURL,
			IsActive:        b.IsActive,
			PrimaryColor:    b.PrimaryColor,
			SecondaryColor:  b.SecondaryColor,
			TertiaryColor:   b.TertiaryColor,
			QuaternaryColor: b.QuaternaryColor,
		})
	}
	return user
}

// membershipIDs returns the ids of user's businesses, plus the platform
// scope for super admins.
func membershipIDs(user *session.User) []int64 {
	ids := user.BusinessIDs()
	if user.IsSuperAdmin && !slices.Contains(ids, session.PlatformBusinessID) {
		ids = append([]int64{session.PlatformBusinessID}, ids...)
	}
	return ids
}

func persistLogin(ctx context.Context, token string, user *session.User, env *Env) error {
	store := env.Store

	// Artifacts of a previous session never carry over. The active business
	// is kept only if it is still a membership of the new user.
	if err := store.Backend().Delete(ctx, session.KeyPermissions, session.KeyBusinessToken); err != nil {
		return env.persistErr(err)
	}
	if err := store.SetToken(ctx, token); err != nil {
		return env.persistErr(err)
	}
	if err := store.SetUser(ctx, user); err != nil {
		return env.persistErr(err)
	}
	if err := store.SetBusinessIDs(ctx, membershipIDs(user)); err != nil {
		return env.persistErr(err)
	}
	if err := store.SetBusinessesData(ctx, user.Businesses); err != nil {
		return env.persistErr(err)
	}

	if store.IsActiveBusinessValid(ctx) {
		return nil
	}
	if err := store.Backend().Delete(ctx, session.KeyActiveBusiness, session.KeyColors); err != nil {
		return env.persistErr(err)
	}
	if len(user.Businesses) == 1 {
		only := user.Businesses[0]
		if err := store.SetActiveBusiness(ctx, only.ID); err != nil {
			return env.persistErr(err)
		}
		if c := only.Colors(); !c.IsZero() {
			if err := store.SetBusinessColors(ctx, c); err != nil {
				return env.persistErr(err)
			}
		}
	}
	return nil
}
