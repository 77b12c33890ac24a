package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/Reales09/reserve-sub002/jwt"
	"github.com/Reales09/reserve-sub002/permission"
)

// Store is the single source of truth for a session's persisted state.
//
// Reads never fail: a backend error or an undecodable value is logged and
// reported as absent, which keeps every gating decision built on top of
// the store total. Writes return the backend error so callers can decide
// whether a failed write matters.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for degraded reads and rejected switches.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a [Store] over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the storage medium of s.
func (s *Store) Backend() Backend {
	return s.backend
}

// Touch restarts the expiry of the session when the backend supports it.
// Backends without expiry make it a no-op.
func (s *Store) Touch(ctx context.Context) error {
	if s == nil {
		return nil
	}
	t, ok := s.backend.(Toucher)
	if !ok {
		return nil
	}
	return t.Touch(ctx)
}

func (s *Store) getRaw(ctx context.Context, key string) ([]byte, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "session store read failed", "key", key, "error", err)
		return nil, false
	}
	return data, ok
}

func (s *Store) getJSON(ctx context.Context, key string, out any) bool {
	data, ok := s.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.WarnContext(ctx, "session store value malformed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, data)
}

func (s *Store) remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// SetToken persists the session token.
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.backend.Set(ctx, KeyToken, []byte(token))
}

// GetToken returns the session token.
func (s *Store) GetToken(ctx context.Context) (string, bool) {
	data, ok := s.getRaw(ctx, KeyToken)
	if !ok || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// RemoveToken deletes the session token.
func (s *Store) RemoveToken(ctx context.Context) error {
	return s.remove(ctx, KeyToken)
}

// HasToken reports whether a non-empty token is stored.
func (s *Store) HasToken(ctx context.Context) bool {
	_, ok := s.GetToken(ctx)
	return ok
}

// TokenExpiry returns the exp claim of the stored token.
func (s *Store) TokenExpiry(ctx context.Context) (time.Time, bool) {
	token, ok := s.GetToken(ctx)
	if !ok {
		return time.Time{}, false
	}
	exp, err := jwt.ExpiresAt(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// IsTokenExpired reports whether the stored token is expired. A missing
// token, an undecodable payload or a missing exp claim all count as
// expired.
func (s *Store) IsTokenExpired(ctx context.Context) bool {
	token, ok := s.GetToken(ctx)
	if !ok {
		return true
	}
	return jwt.Expired(token, s.now())
}

// IsTokenValid is HasToken && !IsTokenExpired.
func (s *Store) IsTokenValid(ctx context.Context) bool {
	return s.HasToken(ctx) && !s.IsTokenExpired(ctx)
}

// SetUser persists u.
func (s *Store) SetUser(ctx context.Context, u *User) error {
	return s.setJSON(ctx, KeyUser, u)
}

// GetUser returns the stored user.
func (s *Store) GetUser(ctx context.Context) (*User, bool) {
	var u User
	if !s.getJSON(ctx, KeyUser, &u) {
		return nil, false
	}
	return &u, true
}

// RemoveUser deletes the stored user.
func (s *Store) RemoveUser(ctx context.Context) error {
	return s.remove(ctx, KeyUser)
}

// SetBusinessIDs persists the membership id set.
func (s *Store) SetBusinessIDs(ctx context.Context, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	return s.setJSON(ctx, KeyBusinessIDs, ids)
}

// GetBusinessIDs returns the membership id set. An empty stored list is
// present: the user belongs to no business.
func (s *Store) GetBusinessIDs(ctx context.Context) ([]int64, bool) {
	var ids []int64
	if !s.getJSON(ctx, KeyBusinessIDs, &ids) {
		return nil, false
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, true
}

// RemoveBusinessIDs deletes the membership id set.
func (s *Store) RemoveBusinessIDs(ctx context.Context) error {
	return s.remove(ctx, KeyBusinessIDs)
}

// SetBusinessesData persists the membership details.
func (s *Store) SetBusinessesData(ctx context.Context, list []BusinessMembership) error {
	if list == nil {
		list = []BusinessMembership{}
	}
	return s.setJSON(ctx, KeyBusinesses, list)
}

// GetBusinessesData returns the membership details.
func (s *Store) GetBusinessesData(ctx context.Context) ([]BusinessMembership, bool) {
	var list []BusinessMembership
	if !s.getJSON(ctx, KeyBusinesses, &list) {
		return nil, false
	}
	return list, true
}

// RemoveBusinessesData deletes the membership details.
func (s *Store) RemoveBusinessesData(ctx context.Context) error {
	return s.remove(ctx, KeyBusinesses)
}

// SetActiveBusiness persists id as the active business without checking
// membership. Use [Store.SwitchBusiness] for user-driven changes.
func (s *Store) SetActiveBusiness(ctx context.Context, id int64) error {
	return s.setJSON(ctx, KeyActiveBusiness, id)
}

// GetActiveBusiness returns the active business id.
func (s *Store) GetActiveBusiness(ctx context.Context) (int64, bool) {
	var id int64
	if !s.getJSON(ctx, KeyActiveBusiness, &id) {
		return 0, false
	}
	return id, true
}

// RemoveActiveBusiness deletes the active business selection.
func (s *Store) RemoveActiveBusiness(ctx context.Context) error {
	return s.remove(ctx, KeyActiveBusiness)
}

// IsActiveBusinessValid reports whether both the membership set and the
// active business exist and the active business is a member.
func (s *Store) IsActiveBusinessValid(ctx context.Context) bool {
	ids, ok := s.GetBusinessIDs(ctx)
	if !ok {
		return false
	}
	active, ok := s.GetActiveBusiness(ctx)
	if !ok {
		return false
	}
	return slices.Contains(ids, active)
}

// IsMember reports whether id is in the stored membership set. known is
// false when no membership set is stored.
func (s *Store) IsMember(ctx context.Context, id int64) (member, known bool) {
	ids, ok := s.GetBusinessIDs(ctx)
	if !ok {
		return false, false
	}
	return slices.Contains(ids, id), true
}

// SwitchBusiness makes id the active business if it is a member of the
// stored membership set. Otherwise nothing is written and false is
// returned.
func (s *Store) SwitchBusiness(ctx context.Context, id int64) bool {
	member, known := s.IsMember(ctx, id)
	if !known {
		s.logger.WarnContext(ctx, "business switch rejected: no membership loaded", "business_id", id)
		return false
	}
	if !member {
		s.logger.WarnContext(ctx, "business switch rejected: not a member", "business_id", id)
		return false
	}
	if err := s.SetActiveBusiness(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "business switch not persisted", "business_id", id, "error", err)
		return false
	}
	return true
}

// SetBusinessColors persists the active business theme.
func (s *Store) SetBusinessColors(ctx context.Context, colors BusinessColors) error {
	return s.setJSON(ctx, KeyColors, colors)
}

// GetBusinessColors returns the active business theme.
func (s *Store) GetBusinessColors(ctx context.Context) (BusinessColors, bool) {
	var c BusinessColors
	if !s.getJSON(ctx, KeyColors, &c) {
		return BusinessColors{}, false
	}
	return c, true
}

// RemoveBusinessColors deletes the active business theme.
func (s *Store) RemoveBusinessColors(ctx context.Context) error {
	return s.remove(ctx, KeyColors)
}

// SetPermissions caches the role/permission payload.
func (s *Store) SetPermissions(ctx context.Context, p *permission.Payload) error {
	return s.setJSON(ctx, KeyPermissions, p)
}

// GetPermissions returns the cached role/permission payload.
func (s *Store) GetPermissions(ctx context.Context) (*permission.Payload, bool) {
	var p permission.Payload
	if !s.getJSON(ctx, KeyPermissions, &p) {
		return nil, false
	}
	return &p, true
}

// RemovePermissions deletes the cached payload.
func (s *Store) RemovePermissions(ctx context.Context) error {
	return s.remove(ctx, KeyPermissions)
}

// SetBusinessToken persists a business-scoped token.
func (s *Store) SetBusinessToken(ctx context.Context, t BusinessToken) error {
	return s.setJSON(ctx, KeyBusinessToken, t)
}

// GetBusinessToken returns the stored business-scoped token.
func (s *Store) GetBusinessToken(ctx context.Context) (BusinessToken, bool) {
	var t BusinessToken
	if !s.getJSON(ctx, KeyBusinessToken, &t) || t.Token == "" {
		return BusinessToken{}, false
	}
	return t, true
}

// RemoveBusinessToken deletes the stored business-scoped token.
func (s *Store) RemoveBusinessToken(ctx context.Context) error {
	return s.remove(ctx, KeyBusinessToken)
}

// ClearSession removes every session key in one backend call.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.backend.Delete(ctx, AllKeys...)
}
