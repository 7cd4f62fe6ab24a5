package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	HandoffKeyPrefix = "search:handoff:%s"
	OTPKeyPrefix     = "auth:otp:%s"
	WSTicketPrefix   = "ws_ticket:%s"
	BlacklistPrefix  = "blacklist:%s"
)

// ErrMiss is returned by KV.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// HandoffKey is where a stored search query lives under its token.
func HandoffKey(token string) string {
	return fmt.Sprintf(HandoffKeyPrefix, token)
}

// OTPKey is where the pending reset code for an email lives.
func OTPKey(email string) string {
	return fmt.Sprintf(OTPKeyPrefix, strings.ToLower(email))
}

// WSTicketKey holds the user ID a websocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketPrefix, ticket)
}

// BlacklistKey marks a revoked token ID.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistPrefix, jti)
}

// KV is a string store with per-key expiry.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// NewKV returns a Redis-backed store when rdb is non-nil and an in-process
// one otherwise.
func NewKV(rdb *redis.Client) KV {
	if rdb == nil {
		return NewMemoryKV()
	}
	return &RedisKV{rdb: rdb}
}

// RedisKV stores keys in Redis.
type RedisKV struct {
	rdb *redis.Client
}

func (k *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := k.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (k *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return k.rdb.Set(ctx, key, value, ttl).Err()
}

func (k *RedisKV) Del(ctx context.Context, key string) error {
	return k.rdb.Del(ctx, key).Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryKV is an in-process KV used when Redis is unavailable.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memoryEntry), now: time.Now}
}

func (k *MemoryKV) Get(_ context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if !e.expiresAt.IsZero() && !k.now().Before(e.expiresAt) {
		delete(k.entries, key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (k *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = k.now().Add(ttl)
	}
	k.entries[key] = e
	return nil
}

func (k *MemoryKV) Del(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
	return nil
}
