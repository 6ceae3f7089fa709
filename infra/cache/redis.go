// Package cache provides a Redis backed weather report cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/sortie/core/model"
)

// Config locates the Redis server.
type Config struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "sortie:metar:"
	}
}

// RedisCache stores weather reports as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedis connects and pings the server within five seconds.
func NewRedis(cfg Config) (*RedisCache, error) {
	cfg.SetDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client, prefix: cfg.KeyPrefix}, nil
}

func (c *RedisCache) key(icao string) string {
	return c.prefix + strings.ToUpper(icao)
}

// Get returns the cached report; a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, icao string) (model.WeatherReport, bool, error) {
	raw, err := c.client.Get(ctx, c.key(icao)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.WeatherReport{}, false, nil
	}
	if err != nil {
		return model.WeatherReport{}, false, fmt.Errorf("redis get %s: %w", c.key(icao), err)
	}
	var r model.WeatherReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.WeatherReport{}, false, fmt.Errorf("unmarshal cached report for %s: %w", icao, err)
	}
	return r, true, nil
}

// Set stores r under its ICAO with the given TTL.
func (c *RedisCache) Set(ctx context.Context, r model.WeatherReport, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report for %s: %w", r.ICAO, err)
	}
	if err := c.client.Set(ctx, c.key(r.ICAO), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key(r.ICAO), err)
	}
	return nil
}

// Close releases the connection.
func (c *RedisCache) Close() error { return c.client.Close() }
