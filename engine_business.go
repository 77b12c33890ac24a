package console

import (
	"context"

	"github.com/Reales09/reserve-sub002/internal/flows"
)

// SwitchBusiness makes id the active business. Ids outside the stored
// membership set fail with a [*BusinessMembershipError] and leave the
// session unchanged. The platform scope 0 is a member for super admins.
func (c *Console) SwitchBusiness(ctx context.Context, id int64) error {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}
	return flows.RunSwitchBusiness(ctx, id, flows.BusinessDeps{Env: c.env(store)})
}

// BusinessToken exchanges the session token for a token scoped to
// businessID without changing the active business. A known membership set
// that lacks businessID fails before any network call.
func (c *Console) BusinessToken(ctx context.Context, businessID int64) (string, error) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return "", err
	}
	bt, err := flows.RunBusinessToken(ctx, businessID, flows.BusinessDeps{Env: c.env(store)})
	if err != nil {
		return "", err
	}
	return bt.Token, nil
}

// ActivateBusiness switches to id and stores a business token for it.
func (c *Console) ActivateBusiness(ctx context.Context, id int64) (BusinessToken, error) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return BusinessToken{}, err
	}
	return flows.RunActivateBusiness(ctx, id, flows.BusinessDeps{Env: c.env(store)})
}

// Businesses returns the memberships of the current session.
func (c *Console) Businesses(ctx context.Context) []BusinessMembership {
	store, err := c.sessionStore(ctx)
	if err != nil || !store.IsTokenValid(ctx) {
		return nil
	}
	list, _ := store.GetBusinessesData(ctx)
	return list
}

// ActiveBusiness returns the active business id when one is selected and
// still a member.
func (c *Console) ActiveBusiness(ctx context.Context) (int64, bool) {
	store, err := c.sessionStore(ctx)
	if err != nil || !store.IsActiveBusinessValid(ctx) {
		return 0, false
	}
	return store.GetActiveBusiness(ctx)
}

// Theme returns the colors of the active business.
func (c *Console) Theme(ctx context.Context) (BusinessColors, bool) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return BusinessColors{}, false
	}
	return store.GetBusinessColors(ctx)
}

// StoredBusinessToken returns the business token kept for the active
// business, if any.
func (c *Console) StoredBusinessToken(ctx context.Context) (BusinessToken, bool) {
	store, err := c.sessionStore(ctx)
	if err != nil {
		return BusinessToken{}, false
	}
	bt, ok := store.GetBusinessToken(ctx)
	if !ok {
		return BusinessToken{}, false
	}
	if active, ok := store.GetActiveBusiness(ctx); !ok || active != bt.BusinessID {
		return BusinessToken{}, false
	}
	return bt, true
}
