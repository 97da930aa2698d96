package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
)

type Key struct {
	DoctorID    uint
	Date        string
	SlotMinutes int
	Granular    bool

	// Version is the doctor's cache generation, filled in by Get.
	Version int64
}

// unversioned marks a key whose version could not be read. Set ignores it.
const unversioned = -1

// Availability caches computed day slots. Failures never reach the caller:
// a broken cache behaves like an empty one.
//
// Get returns the key it resolved. Callers pass that key to Set, so slots
// computed before an invalidation are filed under the old version and are
// never served.
type Availability interface {
	Get(ctx context.Context, key Key) (Key, *availability.DaySlots, bool)
	Set(ctx context.Context, key Key, slots *availability.DaySlots)
	InvalidateDoctor(ctx context.Context, doctorID uint)
}

// ------------------------------------------------------------
// Redis
// ------------------------------------------------------------

// KV is the part of *redis.Client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisAvailability namespaces entries by a per-doctor version counter.
// Invalidation bumps the counter so every old entry becomes unreachable and
// expires on its own.
type RedisAvailability struct {
	client KV
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisAvailability(client KV, ttl time.Duration, log *zap.Logger) *RedisAvailability {
	return &RedisAvailability{client: client, ttl: ttl, log: log}
}

func versionKey(doctorID uint) string {
	return fmt.Sprintf("availability:%d:version", doctorID)
}

func entryKey(key Key) string {
	return fmt.Sprintf("availability:%d:v%d:%s:%d:%t",
		key.DoctorID, key.Version, key.Date, key.SlotMinutes, key.Granular)
}

func (c *RedisAvailability) Get(ctx context.Context, key Key) (Key, *availability.DaySlots, bool) {
	version, err := c.client.Get(ctx, versionKey(key.DoctorID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("availability cache version read failed", zap.Error(err))
		key.Version = unversioned
		return key, nil, false
	}
	key.Version = version

	k := entryKey(key)
	raw, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return key, nil, false
	}
	if err != nil {
		c.log.Warn("availability cache read failed", zap.String("key", k), zap.Error(err))
		return key, nil, false
	}

	var out availability.DaySlots
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("availability cache entry corrupt", zap.String("key", k), zap.Error(err))
		return key, nil, false
	}
	return key, &out, true
}

func (c *RedisAvailability) Set(ctx context.Context, key Key, slots *availability.DaySlots) {
	if key.Version == unversioned {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	k := entryKey(key)
	if err := c.client.Set(ctx, k, raw, c.ttl).Err(); err != nil {
		c.log.Warn("availability cache write failed", zap.String("key", k), zap.Error(err))
	}
}

func (c *RedisAvailability) InvalidateDoctor(ctx context.Context, doctorID uint) {
	if err := c.client.Incr(ctx, versionKey(doctorID)).Err(); err != nil {
		c.log.Warn("availability cache invalidation failed", zap.Uint("doctor_id", doctorID), zap.Error(err))
	}
}

// ------------------------------------------------------------
// Noop
// ------------------------------------------------------------

type NoopAvailability struct{}

func (NoopAvailability) Get(_ context.Context, key Key) (Key, *availability.DaySlots, bool) {
	return key, nil, false
}
func (NoopAvailability) Set(context.Context, Key, *availability.DaySlots) {}
func (NoopAvailability) InvalidateDoctor(context.Context, uint)           {}

var (
	_ Availability = (*RedisAvailability)(nil)
	_ Availability = NoopAvailability{}
	_ KV           = (*redis.Client)(nil)
)
