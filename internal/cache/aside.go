package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fitcraft/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It reports false on a miss or when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key with the given TTL.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// storeIfCurrent writes KEYS[1] only while the generation in KEYS[2] still equals ARGV[1].
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Generation returns the invalidation counter of key, "0" when it was never invalidated.
func Generation(ctx context.Context, key string) (string, error) {
	if client == nil {
		return "0", nil
	}
	gen, err := client.Get(ctx, GenerationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// SetJSONIfGeneration stores value under key unless key was invalidated after gen was read.
// It reports whether the value was stored.
func SetJSONIfGeneration(ctx context.Context, key, gen string, value any, ttl time.Duration) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stored, err := storeIfCurrent.Run(ctx, client, []string{key, GenerationKey(key)}, gen, raw, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Aside fills dest from key, or runs fetch (which must populate dest) and caches the result.
// A result fetched while a writer invalidated key is returned but not cached.
// Redis failures degrade to calling fetch directly.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	hit, err := GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return nil
	}

	gen, genErr := Generation(ctx, key)
	if err := fetch(); err != nil {
		return err
	}
	if genErr != nil {
		return nil
	}
	stored, err := SetJSONIfGeneration(ctx, key, gen, dest, ttl)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	if !stored {
		middleware.Logger.DebugContext(ctx, "cache fill skipped after invalidation", slog.String("key", key))
	}
	return nil
}
