package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.AI.GeminiModel)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("GH_CLIENT_ID", "cid")
	t.Setenv("GH_CLIENT_SECRET", "secret")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.HasOAuth())
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n  redis_addr: cache:6379\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"未知后端", Config{Store: StoreConfig{Backend: "mongo"}, GitHub: GitHubConfig{RPS: 1}}, true},
		{"postgres 缺少 DSN", Config{Store: StoreConfig{Backend: "postgres"}, GitHub: GitHubConfig{RPS: 1}}, true},
		{"生产环境缺少 JWT", Config{Server: ServerConfig{Env: "production"}, Store: StoreConfig{Backend: "memory"}, GitHub: GitHubConfig{RPS: 1}}, true},
		{"rps 非法", Config{Store: StoreConfig{Backend: "memory"}}, true},
		{"合法配置", Config{Store: StoreConfig{Backend: "memory"}, GitHub: GitHubConfig{RPS: 5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
