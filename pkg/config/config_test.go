package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
quotes:
  api_url: http://localhost:9000
  default_symbols: [AAPL, MSFT]
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quotes.TTL != 24*time.Hour {
		t.Fatalf("unexpected quote ttl %s", cfg.Quotes.TTL)
	}
	if cfg.Refresh.Interval != 5*time.Second {
		t.Fatalf("unexpected refresh interval %s", cfg.Refresh.Interval)
	}
	if cfg.Alerts.Interval != time.Minute {
		t.Fatalf("unexpected alerts interval %s", cfg.Alerts.Interval)
	}
	if cfg.Notifications.FlushInterval != 30*time.Second {
		t.Fatalf("unexpected flush interval %s", cfg.Notifications.FlushInterval)
	}
	if cfg.Broadcast.Interval != 5*time.Second {
		t.Fatalf("unexpected broadcast interval %s", cfg.Broadcast.Interval)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected port %d", cfg.Server.Port)
	}
}

func TestValidateRejectsMissingSymbols(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
quotes:
  api_url: http://localhost:9000
`))
	if err == nil {
		t.Fatalf("expected validation error for empty default_symbols")
	}
}

func TestValidateRejectsSubSecondRefresh(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
refresh:
  interval: 100ms
`))
	if err == nil {
		t.Fatalf("expected validation error for sub-second refresh interval")
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
kafka:
  enabled: true
`))
	if err == nil {
		t.Fatalf("expected validation error for kafka without brokers")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUOTES_API_KEY", "secret")
	t.Setenv("DEFAULT_SYMBOLS", "NVDA,AMD")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quotes.APIKey != "secret" {
		t.Fatalf("api key override not applied")
	}
	if len(cfg.Quotes.DefaultSymbols) != 2 || cfg.Quotes.DefaultSymbols[0] != "NVDA" {
		t.Fatalf("symbols override not applied: %v", cfg.Quotes.DefaultSymbols)
	}
	if cfg.Redis.Host != "redis.internal" || cfg.Redis.Port != 6380 {
		t.Fatalf("redis override not applied: %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}
}
