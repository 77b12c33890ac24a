package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackendTest(t *testing.T) (*RedisBackend, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackend(rdb, "rcs", "sid-1", time.Hour)
	return backend, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisBackendKeysAndTTL(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	ctx := context.Background()

	if err := backend.Set(ctx, KeyToken, []byte("tok")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("rcs:sid-1:auth_token")
	if err != nil || got != "tok" {
		t.Fatalf("raw key = %q,%v", got, err)
	}
	if ttl := mr.TTL("rcs:sid-1:auth_token"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	data, ok, err := backend.Get(ctx, KeyToken)
	if err != nil || !ok || string(data) != "tok" {
		t.Fatalf("get = %q,%v,%v", data, ok, err)
	}
	_, ok, err = backend.Get(ctx, KeyUser)
	if err != nil || ok {
		t.Fatalf("missing key = %v,%v", ok, err)
	}
}

func TestRedisBackendClearSession(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	store := NewStore(backend, WithLogger(quietLogger()), WithClock(func() time.Time { return testNow }))

	populate(t, store)
	if n := len(mr.Keys()); n != len(AllKeys) {
		t.Fatalf("redis holds %d keys, want %d", n, len(AllKeys))
	}
	if err := store.ClearSession(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("clear left %d keys", n)
	}
	assertCleared(t, store)
}

func TestRedisBackendSessionsAreIsolated(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	ctx := context.Background()
	other := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "rcs", "sid-2", time.Hour)

	if err := backend.Set(ctx, KeyToken, []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := other.Get(ctx, KeyToken); ok {
		t.Fatalf("session sid-2 sees sid-1's token")
	}
}

func TestRedisBackendTouchExtendsTTL(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	ctx := context.Background()

	if err := backend.Set(ctx, KeyUser, []byte("{}")); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(30 * time.Minute)
	if err := backend.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("rcs:sid-1:auth_user"); ttl != time.Hour {
		t.Fatalf("ttl after touch = %v, want 1h", ttl)
	}
}

func TestStoreTouchSlidesEveryKey(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	ctx := context.Background()
	store := NewStore(backend, WithLogger(quietLogger()))

	if err := store.SetBusinessIDs(ctx, []int64{1, 2}); err != nil {
		t.Fatalf("set ids: %v", err)
	}
	mr.FastForward(40 * time.Minute)
	if err := store.SetActiveBusiness(ctx, 2); err != nil {
		t.Fatalf("set active: %v", err)
	}
	mr.FastForward(10 * time.Minute)

	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	for _, k := range []string{KeyBusinessIDs, KeyActiveBusiness} {
		if ttl := mr.TTL("rcs:sid-1:" + k); ttl != time.Hour {
			t.Fatalf("%s ttl = %v, want 1h", k, ttl)
		}
	}
	if mr.Exists("rcs:sid-1:" + KeyToken) {
		t.Fatalf("touch created a missing key")
	}
}

func TestStoreTouchWithoutExpiryIsNoop(t *testing.T) {
	store := NewStore(NewMemoryBackend(), WithLogger(quietLogger()))
	if err := store.Touch(context.Background()); err != nil {
		t.Fatalf("touch: %v", err)
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t)
	defer done()
	mr.Close()

	ctx := context.Background()
	if _, _, err := backend.Get(ctx, KeyToken); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("get err = %v, want ErrRedisUnavailable", err)
	}
	if err := backend.Set(ctx, KeyToken, []byte("x")); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("set err = %v, want ErrRedisUnavailable", err)
	}

	store := NewStore(backend, WithLogger(quietLogger()))
	if store.HasToken(ctx) {
		t.Fatalf("unavailable redis must read as no token")
	}
}
