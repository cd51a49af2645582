package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry 键值表的一行
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

// PostgresStore 基于 Postgres 的键值存储
type PostgresStore struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewPostgresStore 初始化数据库连接并自动迁移表结构
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresStore{db: db, nowFunc: time.Now}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if entry.ExpiresAt != nil && !s.nowFunc().Before(*entry.ExpiresAt) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set 写入或覆盖 (INSERT ... ON CONFLICT DO UPDATE)
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.nowFunc()
	entry := KVEntry{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		entry.ExpiresAt = &exp
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error
}

// PurgeExpired 删除所有已过期的行
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.nowFunc()).
		Delete(&KVEntry{})
	return res.RowsAffected, res.Error
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
