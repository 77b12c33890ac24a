package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func hsManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "reserve-console",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestSignVerifyRoundTripHS256(t *testing.T) {
	m := hsManager(t)

	token, err := m.Sign("auth_token", []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := m.Verify("auth_token", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("expected payload, got %q", got)
	}
}

func TestVerifyRejectsValueUnderOtherKey(t *testing.T) {
	m := hsManager(t)

	token, err := m.Sign("auth_token", []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify("auth_user", token); err == nil {
		t.Fatal("expected key mismatch to be rejected")
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := ValueClaims{Key: "k", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Verify("k", token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestEd25519SignVerify(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Sign("auth_user", []byte(`{"id":1}`))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify("auth_user", token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestNewManagerRejectsShortHMACKey(t *testing.T) {
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short key to be rejected")
	}
}

func unsignedToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}

func TestExpiredFailsClosed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", true},
		{"garbage", "not-a-token", true},
		{"bad base64", "a.%%%.c", true},
		{"missing exp", unsignedToken(`{"sub":"1"}`), true},
		{"exp one second ago", unsignedToken(`{"exp":1699999999}`), true},
		{"exp equals now", unsignedToken(`{"exp":1700000000}`), true},
		{"exp in future", unsignedToken(`{"exp":1700003600}`), false},
	}

	for _, tc := range cases {
		if got := Expired(tc.token, now); got != tc.want {
			t.Fatalf("%s: expected expired=%v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestExpiresAtReadsClaim(t *testing.T) {
	exp, err := ExpiresAt(unsignedToken(`{"exp":1700003600}`))
	if err != nil {
		t.Fatalf("expires at: %v", err)
	}
	if exp.Unix() != 1700003600 {
		t.Fatalf("unexpected exp %d", exp.Unix())
	}
}

func TestExpiresAtIgnoresHeaderAlgorithm(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256K","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":1700003600}`))

	exp, err := ExpiresAt(header + "." + body + ".sig")
	if err != nil {
		t.Fatalf("expires at: %v", err)
	}
	if exp.Unix() != 1700003600 {
		t.Fatalf("unexpected exp %d", exp.Unix())
	}
	if Expired(header+"."+body+".sig", time.Unix(1_700_000_000, 0)) {
		t.Fatalf("token with unregistered alg treated as expired")
	}
	if _, err := ExpiresAt(header + "." + body); err == nil {
		t.Fatalf("two-segment token accepted")
	}
}
