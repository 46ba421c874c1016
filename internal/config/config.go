package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	gookit "github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	Addr         string
	Store        string
	DatabaseURL  string
	DataFile     string
	AuthEnabled  bool
	JWTSecret    string
	TokenTTL     time.Duration
	LoginRate    float64
	LoginBurst   int
	TrustProxy   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// fileConfig 对应 YAML 配置文件，时长字段以字符串形式（如 5s/1m）书写；
// login_rate 用指针区分未填写和 0（关闭限流）
type fileConfig struct {
	Addr         string   `config:"addr"`
	Store        string   `config:"store"`
	DatabaseURL  string   `config:"database_url"`
	DataFile     string   `config:"data_file"`
	AuthEnabled  bool     `config:"auth_enabled"`
	JWTSecret    string   `config:"jwt_secret"`
	TokenTTL     string   `config:"token_ttl"`
	LoginRate    *float64 `config:"login_rate"`
	LoginBurst   int      `config:"login_burst"`
	TrustProxy   bool     `config:"trust_proxy"`
	ReadTimeout  string   `config:"read_timeout"`
	WriteTimeout string   `config:"write_timeout"`
	IdleTimeout  string   `config:"idle_timeout"`
}

func Default(defaultAddr string) Config {
	return Config{
		Addr:         defaultAddr,
		Store:        StoreMemory,
		DatabaseURL:  "",
		DataFile:     "todos.json",
		TokenTTL:     30 * time.Minute,
		LoginRate:    5,
		LoginBurst:   10,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Load 先读取 CONFIG_FILE 指定的 YAML 文件（可选），再用环境变量覆盖
func Load(defaultAddr string) (Config, error) {
	cfg := Default(defaultAddr)

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv("ADDR") == "" {
		cfg.Addr = ":" + port
	}
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.Store = getEnv("TODO_STORE", cfg.Store)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.AuthEnabled = getEnvBool("AUTH_ENABLED", cfg.AuthEnabled)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.LoginRate = getEnvFloat("LOGIN_RATE", cfg.LoginRate)
	cfg.LoginBurst = getEnvInt("LOGIN_BURST", cfg.LoginBurst)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", cfg.TrustProxy)
	cfg.ReadTimeout = getEnvDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", cfg.IdleTimeout)

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres store")
	}
	if c.Store == StoreFile && c.DataFile == "" {
		return errors.New("DATA_FILE is required for the file store")
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when auth is enabled")
	}
	if c.LoginRate < 0 {
		return errors.New("LOGIN_RATE must not be negative")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	c := gookit.New("todo-api").WithOptions(gookit.ParseEnv, func(opt *gookit.Options) {
		opt.DecoderConfig.TagName = "config"
	})
	c.AddDriver(yaml.Driver)

	if err := c.LoadFiles(path); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := c.BindStruct("", &fc); err != nil {
		return fmt.Errorf("bind config file %s: %w", path, err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.Store != "" {
		cfg.Store = fc.Store
	}
	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	if fc.DataFile != "" {
		cfg.DataFile = fc.DataFile
	}
	if fc.AuthEnabled {
		cfg.AuthEnabled = true
	}
	if fc.JWTSecret != "" {
		cfg.JWTSecret = fc.JWTSecret
	}
	if fc.LoginRate != nil {
		cfg.LoginRate = *fc.LoginRate
	}
	if fc.LoginBurst > 0 {
		cfg.LoginBurst = fc.LoginBurst
	}
	if fc.TrustProxy {
		cfg.TrustProxy = true
	}

	durations := []struct {
		value string
		dst   *time.Duration
	}{
		{fc.TokenTTL, &cfg.TokenTTL},
		{fc.ReadTimeout, &cfg.ReadTimeout},
		{fc.WriteTimeout, &cfg.WriteTimeout},
		{fc.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		*d.dst = parsed
	}

	return nil
}

func getEnv(key, fallback string) string {
	// 读取字符串环境变量
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	// 读取时间长度环境变量（如 5s/1m）
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
