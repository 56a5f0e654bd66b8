package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisClient struct {
	inner *redis.Client
}

// AppConfigKey is where the serialized application settings snapshot lives.
// Out-of-process consumers read this key instead of querying the database.
const AppConfigKey = "twish:app_config"

var ctx = context.Background()

func GetRedisClient() *RedisClient {
	return &RedisClient{
		inner: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})}
}

// SetAppConfigSnapshot overwrites the mirrored application settings. The
// snapshot never expires, it is rewritten on every settings mutation.
func (r *RedisClient) SetAppConfigSnapshot(payload []byte) error {
	return r.inner.Set(ctx, AppConfigKey, payload, 0).Err()
}

func (r *RedisClient) GetAppConfigSnapshot() ([]byte, error) {
	return r.inner.Get(ctx, AppConfigKey).Bytes()
}

func (r *RedisClient) DeleteAppConfigSnapshot() error {
	return r.inner.Del(ctx, AppConfigKey).Err()
}

// Ping verifies connectivity on startup.
func (r *RedisClient) Ping() error {
	c, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.inner.Ping(c).Err()
}
