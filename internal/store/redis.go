package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

const principalTTL = time.Minute

// RedisStore handles Redis operations: the principal cache in front of
// the auth service, and the backing store for rate limiting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// principalKey returns the cache key for a credential. Credentials are
// hashed so bearer tokens never appear verbatim in Redis.
func principalKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "auth:principal:" + hex.EncodeToString(sum[:])
}

// GetCachedPrincipal returns the cached principal for a credential, or
// nil on a miss. Cache errors are treated as misses; the caller falls
// through to the auth service.
func (s *RedisStore) GetCachedPrincipal(ctx context.Context, credential string) *models.Principal {
	data, err := s.client.Get(ctx, principalKey(credential)).Bytes()
	if err != nil {
		return nil
	}
	var p models.Principal
	if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
		return nil
	}
	return &p
}

// CachePrincipal stores a resolved principal for a short TTL, bounding
// how long a revoked credential keeps working.
func (s *RedisStore) CachePrincipal(ctx context.Context, credential string, p *models.Principal) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	s.client.Set(ctx, principalKey(credential), data, principalTTL)
}
