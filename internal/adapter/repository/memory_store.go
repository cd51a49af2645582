package repository

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time // 零值表示永不过期
}

// MemoryStore 进程内的键值存储，用于开发环境与测试
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]memEntry
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:    make(map[string]memEntry),
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.nowFunc().Before(e.expiresAt) {
		s.mu.Lock()
		// 重新检查，避免删掉并发写入的新值
		if cur, ok := s.data[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.nowFunc().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// PurgeExpired 清理已过期的键，返回清理数量
func (s *MemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := s.nowFunc()
	var n int64
	s.mu.Lock()
	for k, e := range s.data {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.data, k)
			n++
		}
	}
	s.mu.Unlock()
	return n, nil
}
