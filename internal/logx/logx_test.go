package logx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureString(t *testing.T) {
	cases := map[string]string{
		"":                             "########",
		"short":                        "########",
		"eyJhbGciOiJIUzI1NiJ9.payload": "eyJhbG########load",
	}
	for in, want := range cases {
		if got := SecureString(in); got != want {
			t.Fatalf("SecureString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewJSONHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", Token("token", "eyJhbGciOiJIUzI1NiJ9.payload.signature"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "shown" || rec["component"] != "reserve-console" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if strings.Contains(lines[0], "payload.signature") {
		t.Fatalf("token leaked: %s", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warning") != slog.LevelWarn || ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
	if ValidLevel("bogus") || !ValidLevel("") {
		t.Fatalf("unexpected level validation")
	}
}
