package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("database.url", d.DatabaseURL)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("matcher.match_timeout", d.Matcher.MatchTimeout.String())
	v.SetDefault("matcher.max_sentence_length", d.Matcher.MaxSentenceLength)
	v.SetDefault("matcher.cache_size", d.Matcher.CacheSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// Bind environment variables with SP_ prefix
	v.SetEnvPrefix("SP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database.url"),
		DataDir:     v.GetString("data_dir"),
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Matcher: MatcherConfig{
			MatchTimeout:      v.GetDuration("matcher.match_timeout"),
			MaxSentenceLength: v.GetInt("matcher.max_sentence_length"),
			CacheSize:         v.GetInt("matcher.cache_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Matcher.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must not be negative, got %v", cfg.Matcher.MatchTimeout)
	}
	if cfg.Matcher.MaxSentenceLength <= 0 {
		return fmt.Errorf("max_sentence_length must be positive, got %d", cfg.Matcher.MaxSentenceLength)
	}
	if cfg.Matcher.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", cfg.Matcher.CacheSize)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database.url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use SP_HMAC_SECRET environment variable)")
	}
	return nil
}
