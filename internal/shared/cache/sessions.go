// Package cache 定义会话缓存抽象接口
//
// 会话数据（session id → 内部用户 ID）和 OAuth state 都是带 TTL 的
// 短生命周期键值，生产实现在 redis/ 子包，测试/本地开发用 MemoryCache。
package cache

import (
	"context"
	"sync"
	"time"
)

// SessionCache 会话缓存接口
type SessionCache interface {
	// PutSession 写入会话，TTL 到期自动失效
	PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// GetSession 返回会话对应的用户 ID，会话不存在或已过期时返回空串
	GetSession(ctx context.Context, sessionID string) (string, error)
	// DeleteSession 删除会话（登出、清理过期引用）
	DeleteSession(ctx context.Context, sessionID string) error

	// PutState 记录一次 OAuth 授权流程的 state 防伪参数
	PutState(ctx context.Context, state string, ttl time.Duration) error
	// TakeState 一次性消费 state：存在则删除并返回 true
	TakeState(ctx context.Context, state string) (bool, error)
}

// ============================================================================
// MemoryCache - 内存实现（测试与无 Redis 的本地开发）
// ============================================================================

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache 内存版 SessionCache
type MemoryCache struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	states   map[string]memoryEntry
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string]memoryEntry),
		states:   make(map[string]memoryEntry),
	}
}

var _ SessionCache = (*MemoryCache)(nil)

func (c *MemoryCache) PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = memoryEntry{value: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryCache) GetSession(ctx context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sessions[sessionID]
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.sessions, sessionID)
		return "", nil
	}
	return e.value, nil
}

func (c *MemoryCache) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func (c *MemoryCache) PutState(ctx context.Context, state string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[state] = memoryEntry{value: "1", expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryCache) TakeState(ctx context.Context, state string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.states[state]
	if !ok {
		return false, nil
	}
	delete(c.states, state)
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}
