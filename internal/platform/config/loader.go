package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 按顺序查找的配置文件
var defaultPaths = []string{".config.yaml", "config.yaml"}

// Loader reads configuration from an optional YAML file, an optional .env file
// and TRYON_* environment variables, layered over DefaultConfig.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
	override  func(*Config)
}

// NewLoader creates a loader that searches the working directory for a config file.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the YAML file to read. A pinned path must exist.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// WithOverride runs fn after file and environment layers, before validation.
func (l *Loader) WithOverride(fn func(*Config)) *Loader {
	l.override = fn
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// .env 不存在时忽略，继续使用系统环境变量
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path, err := l.readFile(cfg)
	if err != nil {
		return nil, err
	}
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if l.override != nil {
		l.override(cfg)
	}
	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) readFile(cfg *Config) (string, error) {
	candidates := defaultPaths
	if l.path != "" {
		candidates = []string{l.path}
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) && l.path == "" {
				continue
			}
			return "", fmt.Errorf("read config %s: %w", candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("parse config %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "defaults", nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := l.lookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("TRYON_API_BASE_URL", &cfg.API.BaseURL)
	str("TRYON_OPERATOR_CODE", &cfg.API.OperatorCode)
	str("TRYON_SITE_KEY", &cfg.Verification.SiteKey)
	str("TRYON_LOG_LEVEL", &cfg.Log.Level)
	str("TRYON_LOG_DIR", &cfg.Log.Dir)
	str("TRYON_STORE_DRIVER", &cfg.Store.Driver)
	str("TRYON_SQLITE_DSN", &cfg.Store.SQLite.DSN)
	str("TRYON_REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("TRYON_REDIS_PASSWORD", &cfg.Store.Redis.Password)
	str("TRYON_GATEWAY_STATIC_DIR", &cfg.Gateway.StaticDir)

	if err := dur("TRYON_API_TIMEOUT", &cfg.API.Timeout); err != nil {
		return err
	}
	if err := dur("TRYON_VERIFICATION_WAIT", &cfg.Verification.WaitTimeout); err != nil {
		return err
	}
	if err := dur("TRYON_STORE_TTL", &cfg.Store.TTL); err != nil {
		return err
	}
	if v, ok := l.lookupEnv("TRYON_GATEWAY_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRYON_GATEWAY_PORT: %w", err)
		}
		cfg.Gateway.Port = port
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be http or https, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", cfg.Gateway.Port)
	}
	if cfg.Store.TTL < 0 {
		return fmt.Errorf("store.ttl must not be negative")
	}
	switch cfg.Store.Driver {
	case "", "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	return nil
}
