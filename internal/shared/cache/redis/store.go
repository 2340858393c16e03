// Package redis Redis 会话缓存实现
package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshelf-api/internal/shared/cache"
)

// 键前缀
const (
	keySession = "session:"     // session:{id} → 内部用户 ID
	keyState   = "oauth_state:" // oauth_state:{state} → 占位值
)

// Store Redis 会话缓存
type Store struct {
	client *redis.Client
}

// NewStoreFromURL 从 URL 创建 Redis 会话缓存实例
func NewStoreFromURL(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Sessions] Connected to %s", opts.Addr)
	return &Store{client: client}, nil
}

// NewStoreFromClient 从现有 Redis 客户端创建会话缓存实例
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

var _ cache.SessionCache = (*Store)(nil)

func (s *Store) PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, keySession+sessionID, userID, ttl).Err()
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (string, error) {
	val, err := s.client.Get(ctx, keySession+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keySession+sessionID).Err()
}

func (s *Store) PutState(ctx context.Context, state string, ttl time.Duration) error {
	return s.client.Set(ctx, keyState+state, "1", ttl).Err()
}

// TakeState GETDEL 保证 state 只能被消费一次
func (s *Store) TakeState(ctx context.Context, state string) (bool, error) {
	_, err := s.client.GetDel(ctx, keyState+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
