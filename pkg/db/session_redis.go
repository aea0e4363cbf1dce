package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// RedisSessionStore Redis场次存储，每个场次一个键
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore 创建Redis场次存储，ttl 为 0 时不过期
func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) key(key string) string {
	return s.prefix + key
}

// Load 读取场次
func (s *RedisSessionStore) Load(ctx context.Context, key string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取场次失败: %w", err)
	}
	return decodeSession(data)
}

// Save 保存场次
func (s *RedisSessionStore) Save(ctx context.Context, key string, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

// Delete 删除场次
func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
