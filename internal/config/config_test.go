package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != ":3000" || cfg.Session.Store != "memory" || cfg.Guard.AdminRole != "ADMIN" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
	if len(cfg.Guard.PublicRoutes) != 3 || cfg.Guard.AdminPrefixes[0] != "/admin" {
		t.Errorf("guard = %+v", cfg.Guard)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := []byte(`
server:
  port: ":9000"
backend:
  base_url: "http://backend:8080/api/v1"
session:
  store: redis
stream:
  history_size: 16
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONSOLE_SERVER_PORT", ":9100")
	t.Setenv("CONSOLE_RATELIMIT_SIGNIN_PER_SECOND", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != ":9100" {
		t.Errorf("env should override the file, port = %q", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://backend:8080/api/v1" || cfg.Session.Store != "redis" || cfg.Stream.HistorySize != 16 {
		t.Errorf("file values = %+v", cfg)
	}
	if cfg.RateLimit.SignInPerSecond != 2 {
		t.Errorf("rate limit = %d", cfg.RateLimit.SignInPerSecond)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no backend", func(c *Config) { c.Backend.BaseURL = "" }, true},
		{"unknown store", func(c *Config) { c.Session.Store = "etcd" }, true},
		{"negative threshold", func(c *Config) { c.Settings.LowStockThreshold = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Backend: BackendConfig{BaseURL: "http://b"},
				Session: SessionConfig{Store: "memory"},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
