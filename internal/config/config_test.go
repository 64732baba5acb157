package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.PollInterval != 300*time.Second {
		t.Fatalf("expected 300s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_MS", "1500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FetchTimeout != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	v := viper.New()
	v.Set("fetch_timeout_ms", 0)
	if _, err := load(v); err == nil {
		t.Fatalf("expected error for zero fetch timeout")
	}
}
