package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/jengzang/periodic-risk-go/internal/models"
)

const keyPrefix = "risk_profile:"

// RedisConfig holds the Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache keeps profiles in Redis behind a circuit breaker, so a Redis
// outage degrades to database reads instead of failing requests
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewRedisClient creates a Redis client from cfg
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

// NewRedisCache wraps client; entries expire after ttl (0 keeps them)
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	settings := gobreaker.Settings{
		Name:        "redis-profile-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func key(accountID string) string {
	return keyPrefix + accountID
}

// Get returns the cached profile; a miss is not an error
func (c *RedisCache) Get(ctx context.Context, accountID string) (*models.RiskProfile, bool, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, key(accountID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached profile: %w", err)
	}
	if res == nil {
		return nil, false, nil
	}

	var profile models.RiskProfile
	if err := json.Unmarshal([]byte(res.(string)), &profile); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// Set stores profile under its account
func (c *RedisCache) Set(ctx context.Context, profile *models.RiskProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key(profile.AccountID), string(payload), c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// Delete evicts the profile of an account
func (c *RedisCache) Delete(ctx context.Context, accountID string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, key(accountID)).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to evict cached profile: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
