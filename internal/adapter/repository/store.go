package repository

import (
	"context"
	"fmt"

	"contribuddy/internal/port"
)

var (
	_ port.KVStore = (*MemoryStore)(nil)
	_ port.KVStore = (*RedisStore)(nil)
	_ port.KVStore = (*PostgresStore)(nil)
)

// Options 选择存储后端
type Options struct {
	Backend     string // memory / redis / postgres
	RedisAddr   string
	DatabaseURL string
	KeyPrefix   string
}

// Open 按配置打开键值存储，返回的 close 函数总是非 nil
func Open(ctx context.Context, opts Options) (port.KVStore, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), noop, nil
	case "redis":
		s, err := NewRedisStore(ctx, opts.RedisAddr, opts.KeyPrefix)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := NewPostgresStore(opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("未知的存储后端: %q", opts.Backend)
}
