// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（OAuth 客户端密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

// OAuthConfig 身份提供方 OAuth 客户端配置
//
// ClientID/ClientSecret 不进 YAML，从环境变量读取。
type OAuthConfig struct {
	ClientID     string   `yaml:"-"`
	ClientSecret string   `yaml:"-"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// SessionConfig 服务端会话配置
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	StateTTL   time.Duration `yaml:"state_ttl"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env           Environment
	APIPort       string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	OAuth         OAuthConfig
	Session       SessionConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息和覆盖项
	oauth := yamlCfg.OAuth
	oauth.ClientID = getEnv("OAUTH_CLIENT_ID", "")
	oauth.ClientSecret = getEnv("OAUTH_CLIENT_SECRET", "")
	if v := os.Getenv("OAUTH_REDIRECT_URL"); v != "" {
		oauth.RedirectURL = v
	}

	cfg := &Config{
		Env:           env,
		APIPort:       yamlCfg.Server.Port,
		MongoURI:      getEnv("MONGO_URI", yamlCfg.Mongo.URI),
		MongoDatabase: getEnv("MONGO_DATABASE", yamlCfg.Mongo.Database),
		RedisURL:      getEnv("REDIS_URL", buildRedisURL(yamlCfg.Redis)),
		OAuth:         oauth,
		Session:       yamlCfg.Session,
	}

	cfg.Session.validate()

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "bookshelf"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		OAuth: OAuthConfig{
			AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:    "https://oauth2.googleapis.com/token",
			RedirectURL: "http://localhost:8080/auth/callback",
			Scopes:      []string{"openid", "email", "profile"},
		},
		Session: SessionConfig{CookieName: "session_id", TTL: 24 * time.Hour, StateTTL: 10 * time.Minute},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏连接串中的凭证）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDatabase, maskPassword(c.RedisURL))
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// validate 验证并填充会话默认值
func (s *SessionConfig) validate() {
	if s.CookieName == "" {
		s.CookieName = "session_id"
	}
	if s.TTL == 0 {
		s.TTL = 24 * time.Hour
	}
	if s.StateTTL == 0 {
		s.StateTTL = 10 * time.Minute
	}
}
