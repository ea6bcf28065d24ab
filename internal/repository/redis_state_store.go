package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"StockView/internal/domain/repository"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStateStore keeps session state as JSON under "<prefix>:session:<id>".
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

var _ repository.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore connects and pings Redis.
func NewRedisStateStore(ctx context.Context, cfg RedisConfig) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStateStoreFromClient(client, cfg.Prefix), nil
}

func NewRedisStateStoreFromClient(client *redis.Client, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "stockview"
	}
	return &RedisStateStore{client: client, prefix: prefix}
}

func (s *RedisStateStore) Save(ctx context.Context, sessionID string, st repository.SessionState, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), data, ttl).Err()
}

func (s *RedisStateStore) Load(ctx context.Context, sessionID string) (repository.SessionState, error) {
	var st repository.SessionState
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return st, repository.ErrStateNotFound
		}
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return st, nil
}

func (s *RedisStateStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Unlink(ctx, s.key(sessionID)).Err()
}

// Close closes the Redis connection.
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}

func (s *RedisStateStore) key(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, sessionID)
}
