package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eshop/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Blacklist remembers revoked token ids until the tokens would expire anyway.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewBlacklist uses Redis when redisURL is set and reachable, memory
// otherwise.
func NewBlacklist(redisURL string, log *logger.Logger) Blacklist {
	if redisURL == "" {
		return NewMemoryBlacklist()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("Invalid REDIS_URL, revoked tokens are kept in memory: %v", err)
		return NewMemoryBlacklist()
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, revoked tokens are kept in memory: %v", err)
		client.Close()
		return NewMemoryBlacklist()
	}

	log.Info("Token blacklist stored in Redis")
	return NewRedisBlacklist(client)
}

type RedisBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisBlacklist(client redis.UniversalClient) *RedisBlacklist {
	return &RedisBlacklist{
		client:    client,
		keyPrefix: "token:blacklist:",
	}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// MemoryBlacklist only covers the current process.
type MemoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, expiresAt := range b.revoked {
		if now.After(expiresAt) {
			delete(b.revoked, id)
		}
	}
	b.revoked[jti] = now.Add(ttl)
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}
