package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
payment:
  publishable_key: "pk_test_123"
  secret_key: "sk_test_123"
auth:
  jwt_secret: "test-secret"
database:
  path: "test.db"
server:
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Payment.PublishableKey != "pk_test_123" {
		t.Errorf("expected publishable key pk_test_123, got %s", cfg.Payment.PublishableKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults applied for fields the file omits.
	if cfg.Payment.BaseURL == "" {
		t.Error("expected default payment base url")
	}
	if cfg.Payment.Currency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.Payment.Currency)
	}
	if cfg.Auth.TokenTTL == 0 {
		t.Error("expected default token ttl")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("VOYAGO_TEST_SECRET_KEY", "sk_from_env")

	yamlContent := `
payment:
  publishable_key: "pk_test_123"
  secret_key: "${VOYAGO_TEST_SECRET_KEY}"
auth:
  jwt_secret: "test-secret"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Payment.SecretKey != "sk_from_env" {
		t.Errorf("expected secret key from env, got %s", cfg.Payment.SecretKey)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Payment:  PaymentConfig{PublishableKey: "pk", SecretKey: "sk"},
		Auth:     AuthConfig{JWTSecret: "secret"},
		Database: DatabaseConfig{Path: "path"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing publishable key", mutate: func(c *Config) { c.Payment.PublishableKey = "" }, wantErr: true},
		{name: "missing secret key", mutate: func(c *Config) { c.Payment.SecretKey = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
