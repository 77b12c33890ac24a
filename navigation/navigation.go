package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Reales09/reserve-sub002/permission"
)

// Module identifiers of the console.
const (
	ModuleCalendar     = "calendar"
	ModuleReservations = "reservations"
	ModuleUsers        = "users"
	ModuleBusinesses   = "businesses"
	ModuleTables       = "tables"
	ModuleRooms        = "rooms"
)

// Rule decides whether a module is enabled for a set of capabilities.
type Rule interface {
	Allows(caps permission.Checker) bool
}

// AnyOf enables a module for super admins, for holders of any listed
// permission code, and for holders of any listed role code.
type AnyOf struct {
	Permissions []string
	Roles       []string
}

// Allows implements [Rule].
func (a AnyOf) Allows(caps permission.Checker) bool {
	if caps == nil {
		return false
	}
	if caps.IsSuperAdmin() {
		return true
	}
	for _, code := range a.Permissions {
		if caps.HasPermission(code) {
			return true
		}
	}
	for _, code := range a.Roles {
		if caps.HasRole(code) {
			return true
		}
	}
	return false
}

// Module is one entry of the navigation table. A nil Rule means the module
// is available to every authenticated session.
type Module struct {
	ID    string
	Title string
	Route string
	Rule  Rule
}

// Conditional reports whether m is gated by a rule.
func (m Module) Conditional() bool {
	return m.Rule != nil
}

// WriteActions returns the manage/create/update/delete codes of resource.
func WriteActions(resource string) []string {
	return []string{
		resource + ":" + permission.ActionManage,
		resource + ":" + permission.ActionCreate,
		resource + ":" + permission.ActionUpdate,
		resource + ":" + permission.ActionDelete,
	}
}

// DefaultModules returns the console's navigation table.
func DefaultModules() []Module {
	return []Module{
		{ID: ModuleCalendar, Title: "Calendar", Route: "/calendar"},
		{ID: ModuleReservations, Title: "Reservations", Route: "/reservations"},
		{ID: ModuleUsers, Title: "Users", Route: "/users", Rule: AnyOf{
			Permissions: WriteActions("users"),
			Roles:       []string{"admin"},
		}},
		{ID: ModuleBusinesses, Title: "Businesses", Route: "/businesses", Rule: AnyOf{
			Permissions: WriteActions("businesses"),
			Roles:       []string{"admin"},
		}},
		{ID: ModuleTables, Title: "Tables", Route: "/tables", Rule: AnyOf{
			Permissions: WriteActions("tables"),
			Roles:       []string{"admin", "manager"},
		}},
		{ID: ModuleRooms, Title: "Rooms", Route: "/rooms", Rule: AnyOf{
			Permissions: WriteActions("rooms"),
			Roles:       []string{"admin", "manager"},
		}},
	}
}

// Gate derives the enabled modules of a session from a navigation table.
// It is immutable after construction.
type Gate struct {
	modules []Module
	byID    map[string]int
}

// NewGate validates modules and returns a [Gate]. Module ids must be
// non-empty and unique.
func NewGate(modules []Module) (*Gate, error) {
	if len(modules) == 0 {
		return nil, errors.New("navigation table is empty")
	}
	g := &Gate{
		modules: make([]Module, len(modules)),
		byID:    make(map[string]int, len(modules)),
	}
	copy(g.modules, modules)
	for i, m := range g.modules {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("module %d has no id", i)
		}
		if _, dup := g.byID[id]; dup {
			return nil, fmt.Errorf("duplicate module id %q", id)
		}
		g.byID[id] = i
	}
	return g, nil
}

// Modules returns the full table in declaration order.
func (g *Gate) Modules() []Module {
	out := make([]Module, len(g.modules))
	copy(out, g.modules)
	return out
}

// Enabled returns the modules caps may use: unconditional modules first,
// then conditional ones, each group in declaration order.
func (g *Gate) Enabled(caps permission.Checker) []Module {
	out := make([]Module, 0, len(g.modules))
	for _, m := range g.modules {
		if !m.Conditional() {
			out = append(out, m)
		}
	}
	for _, m := range g.modules {
		if m.Conditional() && m.Rule.Allows(caps) {
			out = append(out, m)
		}
	}
	return out
}

// Allows reports whether caps may use the module with id. Unknown ids are
// denied.
func (g *Gate) Allows(caps permission.Checker, id string) bool {
	i, ok := g.byID[id]
	if !ok {
		return false
	}
	m := g.modules[i]
	return !m.Conditional() || m.Rule.Allows(caps)
}

// Lookup returns the module with id.
func (g *Gate) Lookup(id string) (Module, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Module{}, false
	}
	return g.modules[i], true
}
