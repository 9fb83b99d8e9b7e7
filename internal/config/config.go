// Package config loads the service configuration from a YAML file with
// environment variable overrides for secrets and deploy-time settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Shop    ShopConfig    `yaml:"shop"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ShopConfig struct {
	Domain string `yaml:"domain"`
	Token  string `yaml:"token"`
}

type OracleConfig struct {
	Mode      string        `yaml:"mode"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	AccountID string        `yaml:"account_id"`
	Timeout   time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	// EncryptionKeys enables at-rest encryption; the first key encrypts,
	// the rest decrypt (rotation).
	EncryptionKeys []string `yaml:"encryption_keys"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the built-in development configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Oracle:  OracleConfig{Mode: "ollama"},
		Storage: StorageConfig{Backend: "memory", SessionTTL: 2 * time.Hour},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path (missing file means defaults) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers CONCIERGE_* variables over the file values. Secrets are
// expected to arrive this way in deployments.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "CONCIERGE_ADDR")
	setString(&cfg.Shop.Domain, "CONCIERGE_SHOP_DOMAIN")
	setString(&cfg.Shop.Token, "CONCIERGE_SHOP_TOKEN")
	setString(&cfg.Oracle.Mode, "CONCIERGE_ORACLE_MODE")
	setString(&cfg.Oracle.APIKey, "CONCIERGE_ORACLE_API_KEY")
	setString(&cfg.Oracle.Model, "CONCIERGE_ORACLE_MODEL")
	setString(&cfg.Oracle.BaseURL, "CONCIERGE_ORACLE_BASE_URL")
	setString(&cfg.Oracle.AccountID, "CONCIERGE_ORACLE_ACCOUNT_ID")
	setString(&cfg.Storage.Backend, "CONCIERGE_STORAGE_BACKEND")
	setString(&cfg.Storage.RedisAddr, "CONCIERGE_REDIS_ADDR")
	setString(&cfg.Storage.RedisPassword, "CONCIERGE_REDIS_PASSWORD")
	setInt(&cfg.Storage.RedisDB, "CONCIERGE_REDIS_DB")
	setString(&cfg.Logging.Level, "CONCIERGE_LOG_LEVEL")
	setString(&cfg.Logging.Format, "CONCIERGE_LOG_FORMAT")

	if v := os.Getenv("CONCIERGE_ENCRYPTION_KEY"); v != "" {
		cfg.Storage.EncryptionKeys = append([]string{v}, cfg.Storage.EncryptionKeys...)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
