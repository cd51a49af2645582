package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	GitHub GitHubConfig `mapstructure:"github"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Store  StoreConfig  `mapstructure:"store"`
	AI     AIConfig     `mapstructure:"ai"`
	Notify NotifyConfig `mapstructure:"notify"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	ServiceURL     string        `mapstructure:"service_url"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// GitHubConfig GitHub API 与 OAuth 配置
type GitHubConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Token        string        `mapstructure:"token"`
	RPS          float64       `mapstructure:"rps"`
	Burst        int           `mapstructure:"burst"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// StoreConfig 键值存储后端: memory / redis / postgres
type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	RedisAddr   string `mapstructure:"redis_addr"`
	DatabaseURL string `mapstructure:"database_url"`
}

type AIConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

type NotifyConfig struct {
	FeishuWebhook string `mapstructure:"feishu_webhook"`
}

// 兼容部署环境里已有的变量名
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.env":             "ENV",
	"server.service_url":     "SERVICE_URL",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"github.client_id":       "GH_CLIENT_ID",
	"github.client_secret":   "GH_CLIENT_SECRET",
	"github.token":           "GITHUB_TOKEN",
	"github.rps":             "GITHUB_RPS",
	"auth.jwt_secret":        "JWT_SECRET",
	"store.backend":          "STORE_BACKEND",
	"store.redis_addr":       "REDIS_ADDR",
	"store.database_url":     "DATABASE_URL",
	"ai.gemini_api_key":      "GEMINI_API_KEY",
	"notify.feishu_webhook":  "FEISHU_WEBHOOK",
}

// Load 加载配置: .env -> 配置文件 -> 环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CONTRIBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env, "CONTRIBUDDY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.service_url", "http://localhost:3001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.request_timeout", 2*time.Minute)

	v.SetDefault("github.rps", 10.0)
	v.SetDefault("github.burst", 5)
	v.SetDefault("github.max_wait", time.Minute)

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")

	v.SetDefault("ai.gemini_model", "gemini-2.5-flash-lite")
}

// IsProduction 是否运行在生产环境
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Env)
	return env == "prod" || env == "production"
}

// Validate 检查配置的一致性
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.backend=postgres 需要设置 DATABASE_URL")
		}
	default:
		return fmt.Errorf("未知的存储后端: %q", c.Store.Backend)
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("生产环境必须设置 JWT_SECRET")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "contribuddy-dev-secret"
	}
	if c.GitHub.RPS <= 0 {
		return fmt.Errorf("github.rps 必须大于 0")
	}
	return nil
}

// HasOAuth 是否配置了 GitHub OAuth 应用
func (c *Config) HasOAuth() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}
