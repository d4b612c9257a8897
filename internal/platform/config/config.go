package config

import (
	"time"
)

type Config struct {
	API          APIConfig          `yaml:"api"`
	Verification VerificationConfig `yaml:"verification"`
	Log          LogConfig          `yaml:"log"`
	Store        StoreConfig        `yaml:"store"`
	Gateway      GatewayConfig      `yaml:"gateway"`
}

// APIConfig 远程试穿服务配置
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// OperatorCode is sent on every submission as the static environment bypass header.
	OperatorCode string `yaml:"operator_code"`
	UserAgent    string `yaml:"user_agent"`
}

// VerificationConfig 人机验证配置
type VerificationConfig struct {
	SiteKey     string        `yaml:"site_key"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// StoreConfig 本地记录仓库配置，TTL 为 0 表示不过期
type StoreConfig struct {
	Driver string            `yaml:"driver"`
	TTL    time.Duration     `yaml:"ttl,omitempty"`
	SQLite StoreSQLiteConfig `yaml:"sqlite,omitempty"`
	Redis  StoreRedisConfig  `yaml:"redis,omitempty"`
}

type StoreSQLiteConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

type StoreRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// GatewayConfig 本地网关配置
type GatewayConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}
