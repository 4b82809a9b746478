package sessionauth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
session:
  duration: 120
  backend: redis
  redis_prefix: app
login:
  max_attempts: 3
  cooldown: 2m
password:
  algorithm: bcrypt
  bcrypt_cost: 12
http:
  addr: ":8080"
`)

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Session.DurationSeconds != 120 || cfg.Session.Backend != SessionBackendRedis || cfg.Session.RedisPrefix != "app" {
		t.Fatalf("session section not applied: %+v", cfg.Session)
	}
	if cfg.Login.MaxAttempts != 3 || cfg.Login.Cooldown != 2*time.Minute {
		t.Fatalf("login section not applied: %+v", cfg.Login)
	}
	if cfg.Password.Algorithm != AlgorithmBcrypt || cfg.Password.BcryptCost != 12 {
		t.Fatalf("password section not applied: %+v", cfg.Password)
	}
	// Untouched keys keep their defaults.
	if cfg.HTTP.CookieName != "session_id" || cfg.Password.Memory != DefaultConfig().Password.Memory {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, "http:\n  addr: \":8080\"\nsession:\n  duration: 120\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http.addr", ":5000", "")
	flags.Int("session.duration", 3600, "")
	if err := flags.Parse([]string{"--http.addr=:9090"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadConfig(path, flags)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected flag to win, got %q", cfg.HTTP.Addr)
	}
	if cfg.Session.DurationSeconds != 120 {
		t.Fatalf("unset flag must not override the file, got %d", cfg.Session.DurationSeconds)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfigFile(t, "session:\n  backend: sqlite\n")
	if _, err := LoadConfig(path, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
