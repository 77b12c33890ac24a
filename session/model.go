package session

import (
	"slices"

	"github.com/Reales09/reserve-sub002/permission"
)

// PlatformBusinessID is the implicit scope super admins operate in when no
// tenant is selected.
const PlatformBusinessID int64 = 0

// User is the identity persisted under [KeyUser]. It is replaced wholesale
// on login and permission refresh, never patched field by field.
type User struct {
	ID                     int64                `json:"id"`
	Name                   string               `json:"name"`
	Email                  string               `json:"email"`
	AvatarURL              string               `json:"avatar_url,omitempty"`
	Roles                  []permission.Role    `json:"roles"`
	Businesses             []BusinessMembership `json:"businesses"`
	IsSuperAdmin           bool                 `json:"is_super_admin"`
	PasswordChangeRequired bool                 `json:"password_change_required,omitempty"`
}

// BusinessIDs returns the membership ids of u in declaration order.
func (u *User) BusinessIDs() []int64 {
	if u == nil {
		return nil
	}
	ids := make([]int64, 0, len(u.Businesses))
	for _, b := range u.Businesses {
		ids = append(ids, b.ID)
	}
	return ids
}

// BusinessMembership is one tenant the user belongs to.
type BusinessMembership struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	LogoURL         string `json:"logo_url,omitempty"`
	IsActive        bool   `json:"is_active"`
	PrimaryColor    string `json:"primary_color,omitempty"`
	SecondaryColor  string `json:"secondary_color,omitempty"`
	TertiaryColor   string `json:"tertiary_color,omitempty"`
	QuaternaryColor string `json:"quaternary_color,omitempty"`
}

// Colors returns the theme colors of b.
func (b BusinessMembership) Colors() BusinessColors {
	return BusinessColors{
		Primary:    b.PrimaryColor,
		Secondary:  b.SecondaryColor,
		Tertiary:   b.TertiaryColor,
		Quaternary: b.QuaternaryColor,
	}
}

// BusinessColors is the theme of the active business.
type BusinessColors struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Tertiary   string `json:"tertiary,omitempty"`
	Quaternary string `json:"quaternary,omitempty"`
}

// IsZero reports whether no color is set.
func (c BusinessColors) IsZero() bool {
	return c == BusinessColors{}
}

// BusinessToken is a business-scoped token together with the business it
// was issued for. It is independent of the session token's expiry.
type BusinessToken struct {
	BusinessID int64  `json:"business_id"`
	Token      string `json:"token"`
}

// FindBusiness returns the membership with id from list.
func FindBusiness(list []BusinessMembership, id int64) (BusinessMembership, bool) {
	idx := slices.IndexFunc(list, func(b BusinessMembership) bool { return b.ID == id })
	if idx < 0 {
		return BusinessMembership{}, false
	}
	return list[idx], true
}
