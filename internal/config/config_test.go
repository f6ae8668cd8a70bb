package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvListen, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WeekStart != "sunday" {
		t.Fatalf("week start = %q, want sunday", cfg.WeekStart)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api/" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvListen, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "week_start: Monday\ntimezone: Europe/Berlin\napi:\n  timeout_seconds: 3\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WeekStartDay() != time.Monday {
		t.Fatalf("week start day = %v", cfg.WeekStartDay())
	}
	if cfg.APITimeout() != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.APITimeout())
	}
	if len(cfg.Palette) != len(DefaultPalette) {
		t.Fatalf("palette not defaulted: %v", cfg.Palette)
	}
	if cfg.DefaultDuration() != time.Hour {
		t.Fatalf("default duration = %v", cfg.DefaultDuration())
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("location: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: 0.0.0.0:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIBaseURL, "https://api.example.test/api/")
	t.Setenv(EnvListen, "127.0.0.1:9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.test/api/" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
}

func TestUnknownWeekStartFallsBackToSunday(t *testing.T) {
	c := &Config{WeekStart: "friday"}
	c.Normalize()
	if c.WeekStartDay() != time.Sunday {
		t.Fatalf("got %v", c.WeekStartDay())
	}
}
