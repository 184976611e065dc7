package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/v2mng/internal/support/fsutil"
)

// DefaultHome is the working directory used when --path is not given.
const DefaultHome = "~/.v2mng"

// LoadOptions carries CLI overrides.
type LoadOptions struct {
	Home       string // --path
	ConfigFile string // --config, defaults to <home>/v2mng.yaml
}

func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	home := opts.Home
	if home == "" {
		home = DefaultHome
	}
	home, err := fsutil.ExpandHome(home)
	if err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("v2mng")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("V2MNG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv 只覆盖已知 key，没有默认值的 key 需要显式绑定
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// --path 优先于配置文件中的 home
	if opts.Home != "" || cfg.Home == "" {
		cfg.Home = home
	} else if cfg.Home, err = fsutil.ExpandHome(cfg.Home); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "file", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	return &cfg, nil
}

// envBindings lists the keys without a default value.
var envBindings = map[string]string{
	"home":               "V2MNG_HOME",
	"sources":            "V2MNG_SOURCES",
	"log.add_source":     "V2MNG_LOG_ADD_SOURCE",
	"engine.path":        "V2MNG_ENGINE_PATH",
	"store.path":         "V2MNG_STORE_PATH",
	"watch.metrics_addr": "V2MNG_WATCH_METRICS_ADDR",
	"watch.regen":        "V2MNG_WATCH_REGEN",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.driver", "file")

	v.SetDefault("fetch.timeout", "0s")
	v.SetDefault("fetch.user_agent", "v2mng")
	v.SetDefault("fetch.max_bytes", 5*1024*1024)
	v.SetDefault("fetch.cache_ttl", "24h")
	v.SetDefault("fetch.retry.enabled", true)
	v.SetDefault("fetch.retry.max_retries", 2)
	v.SetDefault("fetch.retry.initial_interval", "500ms")
	v.SetDefault("fetch.retry.max_interval", "5s")
	v.SetDefault("fetch.retry.multiplier", 2)

	v.SetDefault("watch.schedule", "@every 6h")
}

// LoadSources 读取 subs.in.json（或 subs.in.yaml），再追加配置文件中的 sources。
func LoadSources(cfg *Config) ([]string, error) {
	var sources []string
	for _, path := range cfg.SourcesPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read sources: %w", err)
		}
		var list []string
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &list)
		default:
			err = json.Unmarshal(data, &list)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		sources = list
		break
	}
	return append(sources, cfg.Sources...), nil
}
