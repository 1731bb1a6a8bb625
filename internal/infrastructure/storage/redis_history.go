package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const DefaultRedisKey = "weather-lookup:history"

type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	Key      string
}

// RedisHistoryStorage keeps the encoded history under a single key.
type RedisHistoryStorage struct {
	client *redis.Client
	key    string
	logger logger.Logger
}

var _ ports.HistoryStorage = (*RedisHistoryStorage)(nil)

func NewRedisHistoryStorage(ctx context.Context, opts RedisOptions, log logger.Logger) (*RedisHistoryStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     4,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := NewRedisHistoryStorageWithClient(client, opts.Key, log)
	s.logger.Info("Redis history storage initialized successfully")
	return s, nil
}

func NewRedisHistoryStorageWithClient(client *redis.Client, key string, log logger.Logger) *RedisHistoryStorage {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisHistoryStorage{
		client: client,
		key:    key,
		logger: log.WithField("component", "history_redis"),
	}
}

func (s *RedisHistoryStorage) Load(ctx context.Context) ([]string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &entities.PersistenceError{Op: "read", Path: s.key, Err: err}
	}

	cities, err := DecodeHistory(data)
	if err != nil {
		return nil, &entities.PersistenceError{Op: "decode", Path: s.key, Err: err}
	}
	return cities, nil
}

func (s *RedisHistoryStorage) Save(ctx context.Context, cities []string) error {
	data, err := EncodeHistory(cities)
	if err != nil {
		return &entities.PersistenceError{Op: "encode", Path: s.key, Err: err}
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return &entities.PersistenceError{Op: "write", Path: s.key, Err: err}
	}
	s.logger.Debugf("Saved %d history entries to key %s", len(cities), s.key)
	return nil
}

func (s *RedisHistoryStorage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (s *RedisHistoryStorage) Close() error {
	return s.client.Close()
}
