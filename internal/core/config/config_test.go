package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHMACSecrets(t *testing.T) {
	t.Run("single secret", func(t *testing.T) {
		t.Setenv("SP_HMAC_SECRET", testSecret)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("SP_HMAC_SECRET_1", testSecret)
		t.Setenv("SP_HMAC_SECRET_2", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Setenv("SP_HMAC_SECRET", "invalid_format")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("duplicate secret_id between single and numbered", func(t *testing.T) {
		t.Setenv("SP_HMAC_SECRET", testSecret)
		t.Setenv("SP_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for duplicate secret_id")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	t.Run("valid format", func(t *testing.T) {
		secretID, secret, err := ParseHMACSecretWithID(testSecret)
		if err != nil {
			t.Fatalf("ParseHMACSecretWithID failed: %v", err)
		}
		if secretID != "0123456789abcdef0123456789abcdef" {
			t.Errorf("unexpected secret_id: %s", secretID)
		}
		if len(secret) == 0 {
			t.Error("secret should not be empty")
		}
	})

	t.Run("missing colon", func(t *testing.T) {
		if _, _, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef"); err == nil {
			t.Error("expected error for missing colon")
		}
	})

	t.Run("non-hex chars in secret_id", func(t *testing.T) {
		if _, _, err := ParseHMACSecretWithID("0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"); err == nil {
			t.Error("expected error for non-hex secret_id")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		if _, _, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef:c2hvcnQ="); err == nil {
			t.Error("expected error for secret < 32 bytes")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
		}
		if cfg.Server.Port != 50052 {
			t.Errorf("expected port 50052, got %d", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
		}
		if cfg.Matcher.MatchTimeout != 100*time.Millisecond {
			t.Errorf("expected match_timeout 100ms, got %v", cfg.Matcher.MatchTimeout)
		}
		if cfg.Matcher.MaxSentenceLength != 4096 {
			t.Errorf("expected max_sentence_length 4096, got %d", cfg.Matcher.MaxSentenceLength)
		}
		if cfg.DatabaseURL != "sqlite://sentenceparser.db" {
			t.Errorf("expected default database url, got %s", cfg.DatabaseURL)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("expected info/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("SP_SERVER_PORT", "9999")
		t.Setenv("SP_SERVER_HOST", "127.0.0.1")
		t.Setenv("SP_MATCHER_MATCH_TIMEOUT", "0s")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
		}
		if cfg.Matcher.MatchTimeout != 0 {
			t.Errorf("expected match_timeout 0, got %v", cfg.Matcher.MatchTimeout)
		}
	})

	t.Run("config file", func(t *testing.T) {
		path := writeConfig(t, `database:
  url: "postgres://localhost/rules"
matcher:
  cache_size: 16
log:
  format: text
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/rules" {
			t.Errorf("expected postgres url, got %s", cfg.DatabaseURL)
		}
		if cfg.Matcher.CacheSize != 16 {
			t.Errorf("expected cache_size 16, got %d", cfg.Matcher.CacheSize)
		}
		if cfg.Log.Format != "text" {
			t.Errorf("expected text format, got %s", cfg.Log.Format)
		}
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		t.Setenv("SP_SERVER_PORT", "8080")
		path := writeConfig(t, "server:\n  port: 9090\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("expected 8080, got %d", cfg.Server.Port)
		}
	})

	t.Run("secret in config file rejected", func(t *testing.T) {
		path := writeConfig(t, "server:\n  hmac_secret: \"should_be_rejected\"\n")

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use SP_HMAC_SECRET environment variable)" {
			t.Errorf("wrong error message: %v", err)
		}
	})

	t.Run("secret in environment accepted", func(t *testing.T) {
		t.Setenv("SP_HMAC_SECRET", testSecret)

		if _, err := LoadConfig(""); err != nil {
			t.Errorf("LoadConfig failed: %v", err)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("SP_SERVER_PORT", "70000")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("invalid negative values", func(t *testing.T) {
		t.Setenv("SP_MATCHER_MAX_SENTENCE_LENGTH", "-1")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for negative max_sentence_length")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
