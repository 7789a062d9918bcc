package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hayaat-app/payment-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префикс ключей обработанных checkout-сессий
	processedSessionKeyPrefix = "checkout_session:"

	// TTL записи: дольше окна повторов вебхуков шлюза
	processedSessionTTL = 24 * time.Hour
)

// SessionCache кеш подтвержденных checkout-сессий. Повторный редирект
// с уже закоммиченной сессией отвечается без похода в шлюз и базу.
type SessionCache interface {
	IsProcessed(ctx context.Context, sessionID string) (bool, error)
	MarkProcessed(ctx context.Context, sessionID string) error
	Close() error
}

// RedisSessionCache реализация SessionCache через Redis.
type RedisSessionCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisSessionCache создает новый кеш сессий и проверяет соединение.
func NewRedisSessionCache(addr, password string, db int, log *logger.Logger) (*RedisSessionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return &RedisSessionCache{
		client: client,
		log:    log,
	}, nil
}

// NewRedisSessionCacheWithClient оборачивает готовый клиент (для тестов).
func NewRedisSessionCacheWithClient(client *redis.Client, log *logger.Logger) *RedisSessionCache {
	return &RedisSessionCache{client: client, log: log}
}

// IsProcessed сообщает, была ли сессия уже закоммичена.
func (c *RedisSessionCache) IsProcessed(ctx context.Context, sessionID string) (bool, error) {
	key := processedSessionKeyPrefix + sessionID

	_, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		c.log.Errorw("Error reading processed session from Redis", "error", err, "sessionID", sessionID)
		return false, fmt.Errorf("failed to read processed session: %w", err)
	}

	c.log.Debugw("Session found in processed cache", "sessionID", sessionID)
	return true, nil
}

// MarkProcessed запоминает закоммиченную сессию с TTL.
func (c *RedisSessionCache) MarkProcessed(ctx context.Context, sessionID string) error {
	key := processedSessionKeyPrefix + sessionID

	if err := c.client.Set(ctx, key, "1", processedSessionTTL).Err(); err != nil {
		c.log.Errorw("Failed to mark session as processed in Redis", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to mark session as processed: %w", err)
	}

	c.log.Debugw("Session marked as processed", "sessionID", sessionID)
	return nil
}

// Close закрывает соединение с Redis
func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}
