package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{},
		{BaseURL: "ftp://example.com"},
		{BaseURL: "https://example.com", BusinessTokenScheme: "basic"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestLoginDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathLogin {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email != "ana@example.com" {
			t.Errorf("bad login body: %+v %v", req, err)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"tok","user":{"id":4,"name":"Ana","email":"ana@example.com"},"businesses":[{"id":2,"name":"Bistro","primary_color":"#111"}],"is_super_admin":false,"require_password_change":true}}`)
	})

	resp, err := c.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "tok" || resp.User.ID != 4 || !resp.RequirePasswordChange {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Businesses) != 1 || resp.Businesses[0].PrimaryColor != "#111" {
		t.Fatalf("unexpected businesses: %+v", resp.Businesses)
	}
}

func TestLoginFailureCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"credenciales inválidas"}`)
	})
	_, err := c.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	var re *ResponseError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if re.Status != http.StatusUnauthorized || re.Message != "credenciales inválidas" {
		t.Fatalf("unexpected error: %+v", re)
	}
}

func TestMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"not json":      `<html>`,
		"success false": `{"success":false,"error":"nope"}`,
		"missing data":  `{"success":true}`,
		"missing token": `{"success":true,"data":{"user":{"id":1}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			_, err := c.Login(context.Background(), LoginRequest{})
			var re *ResponseError
			if !errors.As(err, &re) {
				t.Fatalf("expected ResponseError, got %v", err)
			}
		})
	}
}

func TestTransportFailureWrapsErrTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.Login(context.Background(), LoginRequest{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestRolesPermissionsUsesBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"is_super":false,"roles":[{"id":1,"code":"Admin"}],"permissions":["users:manage",{"resource":"tables","action":"read"}]}}`)
	})
	p, err := c.RolesPermissions(context.Background(), "tok")
	if err != nil {
		t.Fatalf("roles-permissions: %v", err)
	}
	if len(p.Permissions) != 2 || p.Permissions[0].Code() != "users:manage" || p.Permissions[1].Code() != "tables:read" {
		t.Fatalf("unexpected permissions: %+v", p.Permissions)
	}
}

func TestBusinessTokenAuthScheme(t *testing.T) {
	cases := []struct {
		scheme AuthScheme
		want   string
	}{
		{scheme: "", want: "tok"},
		{scheme: SchemeRaw, want: "tok"},
		{scheme: SchemeBearer, want: "Bearer tok"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != tc.want {
				t.Errorf("scheme %q: authorization = %q, want %q", tc.scheme, got, tc.want)
			}
			var body map[string]int64
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["business_id"] != 7 {
				t.Errorf("business_id = %d", body["business_id"])
			}
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"biz"}}`)
		}, func(cfg *Config) { cfg.BusinessTokenScheme = tc.scheme })

		tok, err := c.BusinessToken(context.Background(), "tok", 7)
		if err != nil || tok != "biz" {
			t.Fatalf("business token = %q,%v", tok, err)
		}
	}
}

func TestChangePasswordAcceptsEmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.CurrentPassword != "old" || req.NewPassword != "new" {
			t.Errorf("unexpected body %+v", req)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"ok"}`)
	})
	if err := c.ChangePassword(context.Background(), "tok", ChangePasswordRequest{CurrentPassword: "old", NewPassword: "new"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
}

func TestObserveSeesEveryRoundTrip(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	}, func(cfg *Config) {
		cfg.Observe = func(endpoint string, d time.Duration, err error) {
			if endpoint != PathChangePassword || err == nil {
				t.Errorf("observe(%s, %v)", endpoint, err)
			}
			calls.Add(1)
		}
	})
	_ = c.ChangePassword(context.Background(), "tok", ChangePasswordRequest{})
	if calls.Load() != 1 {
		t.Fatalf("observe calls = %d", calls.Load())
	}
}
