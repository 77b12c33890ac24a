package session

import "context"

// Storage keys. The names are shared by every backend so a session written
// by one medium reads the same in another.
const (
	KeyToken          = "auth_token"
	KeyUser           = "auth_user"
	KeyBusinessIDs    = "auth_business_ids"
	KeyBusinesses     = "auth_businesses_data"
	KeyActiveBusiness = "auth_active_business"
	KeyColors         = "business_colors"
	KeyPermissions    = "auth_permissions"
	KeyBusinessToken  = "auth_business_token"
)

// AllKeys lists every key owned by a session, in the order ClearSession
// removes them.
var AllKeys = []string{
	KeyToken,
	KeyUser,
	KeyBusinessIDs,
	KeyBusinesses,
	KeyActiveBusiness,
	KeyColors,
	KeyPermissions,
	KeyBusinessToken,
}

// Backend is a storage medium for raw session values.
//
// Delete with several keys must be all-or-nothing from the caller's point
// of view: after it returns nil none of the keys is readable, and after it
// returns an error all of them still are.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Toucher is implemented by backends whose values expire on their own.
// Touch restarts the expiry of every session key.
type Toucher interface {
	Touch(ctx context.Context) error
}
