// Package cache реализует кэш и счетчики неудачных попыток входа на Redis.
// Счетчики с TTL заменяют процессную карту неудачных логинов:
// значение разделяется между инстансами и переживает перезапуск.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ainexo/declair/internal/config"
)

type Cache struct {
	Db *redis.Client
}

func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

func (c *Cache) Get(key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	err = json.Unmarshal([]byte(val), result)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Db.Set(context.Background(), key, jsonData, expiration).Err()
}

func (c *Cache) Invalidate(key string) error {
	return c.Db.Del(context.Background(), key).Err()
}

// IncrFailedLogin увеличивает счетчик неудачных попыток входа для email
// и возвращает новое значение. TTL проставляется при первой попытке.
func (c *Cache) IncrFailedLogin(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	const op = "cache.IncrFailedLogin"
	key := "failed_login:" + email
	count, err := c.Db.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count == 1 {
		if err := c.Db.Expire(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("%s: %w", op, err)
		}
	}
	return count, nil
}

// FailedLoginCount возвращает текущее значение счетчика неудачных
// попыток входа. Отсутствие ключа означает ноль.
func (c *Cache) FailedLoginCount(ctx context.Context, email string) (int64, error) {
	const op = "cache.FailedLoginCount"
	count, err := c.Db.Get(ctx, "failed_login:"+email).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ResetFailedLogin сбрасывает счетчик неудачных попыток после успешного входа.
func (c *Cache) ResetFailedLogin(ctx context.Context, email string) error {
	return c.Db.Del(ctx, "failed_login:"+email).Err()
}
