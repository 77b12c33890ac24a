package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Reales09/reserve-sub002/jwt"
)

// MaxCookieSize is the largest name plus value a browser keeps for a
// single cookie. Larger cookies are dropped by the browser without notice.
const MaxCookieSize = 4096

// ErrCookieTooLarge is returned by [CookieBackend.Set] when the signed
// value does not fit in one cookie.
var ErrCookieTooLarge = errors.New("session cookie too large")

// CookieConfig controls the cookies written by [CookieBackend].
type CookieConfig struct {
	// NamePrefix is prepended to every storage key to form the cookie name.
	NamePrefix string
	Path       string
	Domain     string
	MaxAge     time.Duration
	Secure     bool
	SameSite   http.SameSite
}

// DefaultCookieConfig returns http-only, lax cookies living [DefaultTTL].
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		MaxAge:   DefaultTTL,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieBackend stores each key in its own signed cookie. It is bound to a
// single request/response pair: reads come from the request, writes go to
// the response and are also kept in an overlay so later reads in the same
// request see them.
type CookieBackend struct {
	signer *jwt.Manager
	cfg    CookieConfig
	w      http.ResponseWriter
	r      *http.Request

	mu      sync.Mutex
	pending map[string][]byte
	deleted map[string]bool
}

// NewCookieBackend binds a backend to w and r. Values are signed and
// verified with signer.
func NewCookieBackend(signer *jwt.Manager, cfg CookieConfig, w http.ResponseWriter, r *http.Request) *CookieBackend {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultTTL
	}
	return &CookieBackend{
		signer:  signer,
		cfg:     cfg,
		w:       w,
		r:       r,
		pending: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (c *CookieBackend) name(key string) string {
	return c.cfg.NamePrefix + key
}

// Get returns the verified value of key. A cookie whose signature does not
// verify reads as absent; the error is reported so the store can log it.
func (c *CookieBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	if c.deleted[key] {
		c.mu.Unlock()
		return nil, false, nil
	}
	if v, ok := c.pending[key]; ok {
		c.mu.Unlock()
		return append([]byte(nil), v...), true, nil
	}
	c.mu.Unlock()

	if c.r == nil {
		return nil, false, nil
	}
	ck, err := c.r.Cookie(c.name(key))
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, false, nil
		}
		return nil, false, err
	}
	value, err := c.signer.Verify(key, ck.Value)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set signs value and writes it as a cookie. Nothing is written when the
// signed cookie exceeds [MaxCookieSize].
func (c *CookieBackend) Set(_ context.Context, key string, value []byte) error {
	signed, err := c.signer.Sign(key, value)
	if err != nil {
		return err
	}
	if size := len(c.name(key)) + len(signed); size > MaxCookieSize {
		return fmt.Errorf("%w: %s is %d bytes", ErrCookieTooLarge, c.name(key), size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = append([]byte(nil), value...)
	delete(c.deleted, key)
	http.SetCookie(c.w, c.cookie(key, signed, int(c.cfg.MaxAge/time.Second)))
	return nil
}

// Delete expires every cookie in keys under one lock, so a concurrent read
// in the same request never observes a partial clear.
func (c *CookieBackend) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.pending, k)
		c.deleted[k] = true
		http.SetCookie(c.w, c.cookie(k, "", -1))
	}
	return nil
}

func (c *CookieBackend) cookie(key, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name(key),
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: c.cfg.SameSite,
	}
}
