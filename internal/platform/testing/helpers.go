// Package testing holds fixtures shared by package tests.
package testing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"tryon-client/internal/platform/config"
	"tryon-client/internal/platform/logging"
)

// SetupTestConfig returns the defaults pointed at baseURL with a memory store and quiet logs.
func SetupTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Log.Level = "ERROR"
	cfg.Log.Dir = ""
	cfg.Store.Driver = "memory"
	cfg.Gateway.IP = "127.0.0.1"
	return cfg
}

// WriteConfigFile marshals cfg into a config.yaml under a temp dir and returns its path.
func WriteConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal test config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

// SetupTestLogger returns a debug logger whose console output is captured in the returned buffer.
func SetupTestLogger(t *testing.T) (*logging.Logger, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	logger, err := logging.New(logging.Config{
		Level:    "DEBUG",
		Dir:      t.TempDir(),
		Filename: "test.log",
		Console:  buf,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger, buf
}
