package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "https://dropthedrip.koyeb.app",
			Timeout:      120 * time.Second,
			OperatorCode: "widetech",
			UserAgent:    "tryon-client/1.0",
		},
		Verification: VerificationConfig{
			WaitTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "",
			File:  "tryon-client.log",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			SQLite: StoreSQLiteConfig{
				DSN: "data/records.db",
			},
			Redis: StoreRedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "tryon:record:",
			},
		},
		Gateway: GatewayConfig{
			IP:   "127.0.0.1",
			Port: 8080,
		},
	}
}
