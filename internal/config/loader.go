package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultConfigPath is where Load looks for a config file when none is given
const DefaultConfigPath = "payments.yaml"

// Load builds the configuration: defaults, then the optional yaml file at
// path (DefaultConfigPath when empty), then environment overrides. A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath
	}
	if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("PAYMENTS_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if origin := os.Getenv("PAYMENTS_ALLOWED_ORIGIN"); origin != "" {
		cfg.Server.AllowedOrigin = origin
	}
	if dbPath := os.Getenv("PAYMENTS_DB_PATH"); dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if ttl := os.Getenv("PAYMENTS_CLAIM_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Idempotency.ClaimTTL = d
		}
	}

	// The encryption key is environment-only; validation happens at startup
	// in the crypto package.
	cfg.EncryptionKeyB64 = os.Getenv("PAYMENTS_ENCRYPTION_KEY_B64")
}
