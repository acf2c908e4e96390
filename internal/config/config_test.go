package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "driftbook.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  ws_url: "wss://ws-feed.exchange.coinbase.com"
products:
  - "ETH-USD"
channels:
  - "matches"
  - "level2_batch"
cache:
  url: "10.0.0.5"
  port: "6380"
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}
	if cfg.Cache.URL != "10.0.0.5" {
		t.Errorf("cache.url = %q, want 10.0.0.5", cfg.Cache.URL)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("logging.level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestRedisEnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  ws_url: "wss://ws-feed.exchange.coinbase.com"
products: ["BTC-USD"]
channels: ["matches"]
cache:
  url: "file-host"
  port: "1111"
`)

	t.Setenv("REDIS_URL", "env-host")
	t.Setenv("REDIS_PORT", "2222")

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}
	if cfg.Cache.URL != "env-host" || cfg.Cache.Port != "2222" {
		t.Errorf("cache = %+v, want env overrides applied", cfg.Cache)
	}
}

func TestValidateRequiresProducts(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  ws_url: "wss://ws-feed.exchange.coinbase.com"
cache:
  url: "127.0.0.1"
  port: "6379"
`)

	if _, err := LoadAndValidate(path); err == nil {
		t.Fatal("expected error for missing products, got nil")
	}
}

func TestEnvExpansionInFile(t *testing.T) {
	t.Setenv("DRIFTBOOK_TEST_URL", "wss://custom-feed.example.com")
	path := writeTempConfig(t, `
exchange:
  ws_url: "${DRIFTBOOK_TEST_URL}"
products: ["BTC-USD"]
channels: ["matches"]
cache:
  url: "127.0.0.1"
  port: "6379"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exchange.WSURL != "wss://custom-feed.example.com" {
		t.Errorf("exchange.ws_url = %q, want expanded env value", cfg.Exchange.WSURL)
	}
}
