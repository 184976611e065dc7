package config

import (
	"log/slog"
	"path/filepath"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	Home    string       `mapstructure:"home"`
	Sources []string     `mapstructure:"sources"`
	Log     LogConfig    `mapstructure:"log"`
	Engine  EngineConfig `mapstructure:"engine"`
	Store   StoreConfig  `mapstructure:"store"`
	Fetch   FetchConfig  `mapstructure:"fetch"`
	Watch   WatchConfig  `mapstructure:"watch"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// EngineConfig 定义外部代理核心（xray/v2ray）的位置。
type EngineConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig 定义描述列表的持久化方式：file（subs.json）或 sqlite。
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// FetchConfig 定义订阅拉取配置。Timeout 为 0 表示不超时。
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Retry     RetryConfig   `mapstructure:"retry"`
}

// RetryConfig holds retry settings for remote subscriptions.
type RetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

// WatchConfig 定义后台定时拉取。
type WatchConfig struct {
	Schedule    string `mapstructure:"schedule"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	Regen       bool   `mapstructure:"regen"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Files under the home directory.

func (c *Config) SourcesPaths() []string {
	return []string{filepath.Join(c.Home, "subs.in.json"), filepath.Join(c.Home, "subs.in.yaml")}
}

func (c *Config) SkeletonPaths() []string {
	return []string{filepath.Join(c.Home, "skel.json"), filepath.Join(c.Home, "skel.yaml")}
}

func (c *Config) ConfigPath() string {
	return filepath.Join(c.Home, "config.json")
}

func (c *Config) EnginePath() string {
	if c.Engine.Path != "" {
		return c.Engine.Path
	}
	return filepath.Join(c.Home, "v2ray", "v2ray")
}

func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	if c.Store.Driver == "sqlite" {
		return filepath.Join(c.Home, "subs.db")
	}
	return c.Home
}
