package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/port"
)

func userKey(id int64) string     { return fmt.Sprintf("user:%d", id) }
func tokenKey(id int64) string    { return fmt.Sprintf("token:%d", id) }
func analysisKey(id int64) string { return fmt.Sprintf("analysis:%d", id) }

func notifiedKey(login string, repoID int64) string {
	return fmt.Sprintf("digest:notified:%s:%d", login, repoID)
}

// getJSON 读取并反序列化，键不存在时返回 false
func getJSON(ctx context.Context, store port.KVStore, key string, v interface{}) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "读取存储失败", err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "存储数据格式错误", err)
	}
	return true, nil
}

func setJSON(ctx context.Context, store port.KVStore, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return common.WrapError(common.ErrCodeInternal, "序列化失败", err)
	}
	if err := store.Set(ctx, key, raw, ttl); err != nil {
		return common.WrapError(common.ErrCodeDatabase, "写入存储失败", err)
	}
	return nil
}
