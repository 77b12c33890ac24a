package permission

import "strings"

// Checker answers authorization questions for one session. The navigation
// gate and HTTP middleware depend on this interface rather than on the
// concrete [Evaluator].
type Checker interface {
	IsSuperAdmin() bool
	HasPermission(code string) bool
	HasRole(code string) bool
}

// Evaluator holds the capabilities of a session: the super admin flag, the
// set of canonical permission codes and the set of lower-cased role codes.
// It is computed once per payload refresh and is immutable afterwards, so
// it can be shared between goroutines.
//
// A nil *Evaluator denies everything.
type Evaluator struct {
	loaded      bool
	superAdmin  bool
	permissions map[string]struct{}
	byResource  map[string]map[string]struct{}
	roles       map[string]struct{}
}

var _ Checker = (*Evaluator)(nil)

// NewEvaluator builds an [Evaluator] from p. A nil payload produces an
// evaluator that denies every check.
func NewEvaluator(p *Payload) *Evaluator {
	e := &Evaluator{
		permissions: make(map[string]struct{}),
		byResource:  make(map[string]map[string]struct{}),
		roles:       make(map[string]struct{}),
	}
	if p == nil {
		return e
	}

	e.loaded = true
	e.superAdmin = p.IsSuper

	for _, perm := range p.Permissions {
		if perm.IsZero() {
			continue
		}
		e.permissions[perm.Code()] = struct{}{}
		actions, ok := e.byResource[perm.Resource]
		if !ok {
			actions = make(map[string]struct{})
			e.byResource[perm.Resource] = actions
		}
		actions[perm.Action] = struct{}{}
	}

	for _, role := range p.Roles {
		code := normalizeRole(role.Code)
		if code == "" {
			continue
		}
		e.roles[code] = struct{}{}
	}

	return e
}

// Loaded reports whether a payload was available when e was built.
func (e *Evaluator) Loaded() bool {
	return e != nil && e.loaded
}

// IsSuperAdmin returns the cached super admin flag.
func (e *Evaluator) IsSuperAdmin() bool {
	return e != nil && e.superAdmin
}

// HasPermission reports whether code is granted. Super admins are granted
// everything. code may be a flat "resource:action" string; it is compared
// in canonical form so "users : manage" and "users:manage" are the same.
func (e *Evaluator) HasPermission(code string) bool {
	if e == nil || !e.loaded {
		return false
	}
	if e.superAdmin {
		return true
	}
	perm := Parse(code)
	if perm.IsZero() {
		return false
	}
	_, ok := e.permissions[perm.Code()]
	return ok
}

// HasPermissionFor is the structured form of [Evaluator.HasPermission].
func (e *Evaluator) HasPermissionFor(resource, action string) bool {
	return e.HasPermission(Permission{Resource: resource, Action: action}.Code())
}

// HasAnyPermission reports whether at least one of codes is granted.
func (e *Evaluator) HasAnyPermission(codes ...string) bool {
	for _, code := range codes {
		if e.HasPermission(code) {
			return true
		}
	}
	return false
}

// HasRole matches code against the cached role codes, ignoring case.
func (e *Evaluator) HasRole(code string) bool {
	if e == nil || !e.loaded {
		return false
	}
	_, ok := e.roles[normalizeRole(code)]
	return ok
}

// HasAnyRole reports whether at least one of codes is held.
func (e *Evaluator) HasAnyRole(codes ...string) bool {
	for _, code := range codes {
		if e.HasRole(code) {
			return true
		}
	}
	return false
}

// CanManageResource requires a grant with action exactly "manage".
func (e *Evaluator) CanManageResource(resource string) bool {
	return e.hasAction(resource, ActionManage)
}

// CanReadResource requires a grant with action exactly "read".
func (e *Evaluator) CanReadResource(resource string) bool {
	return e.hasAction(resource, ActionRead)
}

func (e *Evaluator) hasAction(resource, action string) bool {
	if e == nil || !e.loaded {
		return false
	}
	if e.superAdmin {
		return true
	}
	actions, ok := e.byResource[strings.TrimSpace(resource)]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// Permissions returns the granted codes in no particular order.
func (e *Evaluator) Permissions() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.permissions))
	for code := range e.permissions {
		out = append(out, code)
	}
	return out
}

func normalizeRole(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
