package middleware

import (
	"fmt"
	"net/http"
	"strings"

	console "github.com/Reales09/reserve-sub002"
)

// Session binds the request's session store to the request context so
// handlers can call Console operations with r.Context(). It never rejects
// a request except when the store cannot be resolved.
func Session(c *console.Console) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := bind(c, w, r)
			if !ok {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession is [Session] plus a valid-token check. A session still
// waiting for a password change only reaches the password change route.
// Admitted requests slide the session expiry forward.
func RequireSession(c *console.Console) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := bind(c, w, r)
			if !ok {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			nav := c.Config().Navigation
			switch c.State(r.Context()) {
			case console.StateAnonymous:
				reject(w, r, nav.LoginRoute, http.StatusUnauthorized)
				return
			case console.StatePasswordChangeRequired:
				if r.URL.Path != nav.PasswordChangeRoute {
					reject(w, r, nav.PasswordChangeRoute, http.StatusForbidden)
					return
				}
			}
			if err := c.Touch(r.Context()); err != nil {
				c.Logger().WarnContext(r.Context(), "refreshing session expiry", "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule admits sessions whose menu contains module id. It expects
// to run behind [RequireSession]; unbound requests are bound first.
// It panics when id is not in the console's navigation table.
func RequireModule(c *console.Console, id string) func(http.Handler) http.Handler {
	if c != nil {
		if _, ok := c.Gate().Lookup(id); !ok {
			panic(fmt.Sprintf("middleware: unknown navigation module %q", id))
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, bound := console.SessionStoreFromContext(r.Context()); !bound {
				var ok bool
				if r, ok = bind(c, w, r); !ok {
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
			}

			if !c.IsAuthenticated(r.Context()) {
				reject(w, r, c.Config().Navigation.LoginRoute, http.StatusUnauthorized)
				return
			}
			if !c.CanAccess(r.Context(), id) {
				reject(w, r, c.Config().Navigation.HomeRoute, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bind(c *console.Console, w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if c == nil {
		return r, false
	}
	store, err := c.RequestStore(w, r)
	if err != nil {
		c.Logger().ErrorContext(r.Context(), "resolving session store", "error", err)
		return r, false
	}
	return r.WithContext(console.WithSessionStore(r.Context(), store)), true
}

func reject(w http.ResponseWriter, r *http.Request, route string, status int) {
	if route != "" && wantsHTML(r) {
		http.Redirect(w, r, route, http.StatusSeeOther)
		return
	}
	http.Error(w, strings.ToLower(http.StatusText(status)), status)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
