package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures of [RedisBackend].
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultTTL is the lifetime of persisted session values, matching the
// cookie expiry of the server-rendered console.
const DefaultTTL = 7 * 24 * time.Hour

// RedisBackend keeps one session's values in Redis under
// "<prefix>:<sessionID>:<key>". Every write refreshes the TTL of the key it
// writes; values of an abandoned session age out on their own.
type RedisBackend struct {
	redis     redis.UniversalClient
	prefix    string
	sessionID string
	ttl       time.Duration
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewRedisBackend binds a backend to sessionID. A non-positive ttl selects
// [DefaultTTL].
func NewRedisBackend(client redis.UniversalClient, prefix, sessionID string, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "rcs"
	}
	return &RedisBackend{
		redis:     client,
		prefix:    prefix,
		sessionID: sessionID,
		ttl:       ttl,
	}
}

// SessionID returns the identifier this backend is bound to.
func (b *RedisBackend) SessionID() string {
	return b.sessionID
}

func (b *RedisBackend) key(name string) string {
	return b.prefix + ":" + b.sessionID + ":" + name
}

// Get reads key. A missing key is reported as absent, not as an error.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.redis.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, true, nil
}

// Set writes key with the backend TTL.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.redis.Set(ctx, b.key(key), value, b.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes keys with a single DEL, which Redis applies atomically.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, b.key(k))
	}
	if err := b.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Touch extends the TTL of every key of the session in one transaction.
// Keys that do not exist are left alone.
func (b *RedisBackend) Touch(ctx context.Context) error {
	_, err := b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range AllKeys {
			pipe.Expire(ctx, b.key(k), b.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
