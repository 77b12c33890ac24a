package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewStampsIDAndTime(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	a := New(EventLogout, true, now)
	b := New(EventLogout, true, now)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
	if !a.Timestamp.Equal(now) || a.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp = %v", a.Timestamp)
	}
}

func TestDispatcherDeliversOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), New(EventLoginSuccess, true, time.Now()))
	}
	d.Close()

	if got := d.Emitted(); got != 3 {
		t.Fatalf("emitted = %d, want 3", got)
	}
	if len(sink.Events()) != 3 {
		t.Fatalf("sink holds %d events", len(sink.Events()))
	}
	d.Emit(context.Background(), New(EventLogout, true, time.Now()))
	if got := d.Emitted(); got != 3 {
		t.Fatalf("emit after close delivered")
	}
}

type blockingSink struct{ release chan struct{} }

func (s blockingSink) Emit(context.Context, Event) { <-s.release }

func TestDispatcherDropIfFull(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	var dropped []string
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
		OnDrop:     func(e Event) { dropped = append(dropped, e.EventType) },
	}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), New(EventBusinessToken, true, time.Now()))
	}
	if d.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked sink")
	}
	if uint64(len(dropped)) != d.Dropped() {
		t.Fatalf("OnDrop saw %d, Dropped = %d", len(dropped), d.Dropped())
	}
	close(sink.release)
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{}, NoOpSink{})
	if d != nil {
		t.Fatalf("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 || d.Emitted() != 0 {
		t.Fatalf("nil dispatcher reported activity")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	bid := int64(3)
	e := New(EventBusinessSwitched, true, time.Now())
	e.BusinessID = &bid
	sink.Emit(context.Background(), e)

	var out Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != e.ID || out.BusinessID == nil || *out.BusinessID != 3 {
		t.Fatalf("unexpected event: %+v", out)
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sink := NewLogSink(logger)

	sink.Emit(context.Background(), New(EventLoginSuccess, true, time.Now()))
	if buf.Len() != 0 {
		t.Fatalf("success logged at warn: %s", buf.String())
	}
	failed := New(EventLoginFailure, false, time.Now())
	failed.Error = "invalid credentials"
	sink.Emit(context.Background(), failed)
	if !strings.Contains(buf.String(), "event_type=login_failure") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}
