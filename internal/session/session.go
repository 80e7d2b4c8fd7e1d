// Package session issues and resolves login sessions.
//
// A session token is an HS256 JWT whose jti names a Redis key holding the user id.
// Deleting the key revokes the token before it expires. Each user's session ids are
// also kept in a set so all of them can be revoked at once.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fitcraft/internal/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	Issuer   = "fitcraft-api"
	Audience = "fitcraft-client"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// Store creates, resolves and destroys sessions.
type Store interface {
	Create(ctx context.Context, userID uint) (string, error)
	Lookup(ctx context.Context, token string) (uint, bool, error)
	Destroy(ctx context.Context, token string) error
}

// RedisStore keeps session records in Redis.
type RedisStore struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a Store signing tokens with secret and expiring them after ttl.
func NewRedisStore(rdb *redis.Client, secret string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, userID uint) (string, error) {
	if s.rdb == nil {
		return "", errors.New("session store has no redis client")
	}

	now := s.now()
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        jti,
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	index := cache.UserSessions(userID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cache.SessionKey(jti), userID, s.ttl)
		pipe.SAdd(ctx, index, jti)
		pipe.Expire(ctx, index, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup resolves token to its user. Unknown, expired or revoked tokens report ok=false with a nil error.
func (s *RedisStore) Lookup(ctx context.Context, token string) (uint, bool, error) {
	if token == "" || s.rdb == nil {
		return 0, false, nil
	}

	claims, err := s.parse(token, false)
	if err != nil {
		return 0, false, nil
	}

	stored, err := s.rdb.Get(ctx, cache.SessionKey(claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load session: %w", err)
	}

	if stored != claims.Subject {
		return 0, false, nil
	}
	userID, err := strconv.ParseUint(stored, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return uint(userID), true, nil
}

// Destroy revokes the session. Destroying an unknown or malformed token is a no-op.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if token == "" || s.rdb == nil {
		return nil
	}
	claims, err := s.parse(token, true)
	if err != nil {
		return nil
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cache.SessionKey(claims.ID))
		if userID, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
			pipe.SRem(ctx, cache.UserSessions(uint(userID)), claims.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DestroyAll revokes every session issued to userID and reports how many were live.
func (s *RedisStore) DestroyAll(ctx context.Context, userID uint) (int, error) {
	if s.rdb == nil {
		return 0, errors.New("session store has no redis client")
	}
	index := cache.UserSessions(userID)
	ids, err := s.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.SessionKey(id))
	}
	var deleted *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, index, toAny(ids)...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return int(deleted.Val()), nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func (s *RedisStore) parse(token string, allowExpired bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(s.now),
	}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
