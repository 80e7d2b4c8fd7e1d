package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SessionKeyPrefix = "session:%s"
	UserSessionsKey  = "sessions:user:%d"
	FeedKey          = "posts:feed"
	UserPostsPrefix  = "posts:user:%d"
)

const (
	FeedTTL = 30 * time.Second
)

func SessionKey(tokenID string) string {
	return fmt.Sprintf(SessionKeyPrefix, tokenID)
}

// UserSessions is the set of session ids issued to a user.
func UserSessions(userID uint) string {
	return fmt.Sprintf(UserSessionsKey, userID)
}

func UserPostsKey(userID uint) string {
	return fmt.Sprintf(UserPostsPrefix, userID)
}

// GenerationKey holds the invalidation counter of key. Counters never expire.
func GenerationKey(key string) string {
	return key + ":gen"
}

// Invalidate bumps the generation of each key and deletes it in one transaction, so a
// fill that started before the write cannot store its result afterwards. Errors are
// ignored since stale entries expire on their own.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, GenerationKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
}

// InvalidateFeed drops every cached post listing that can contain the user's posts.
func InvalidateFeed(ctx context.Context, userID uint) {
	Invalidate(ctx, FeedKey, UserPostsKey(userID))
}
