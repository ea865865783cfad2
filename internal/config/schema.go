package config

import "time"

// Config represents the full payments server configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Server configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Idempotency coordination configuration
	Idempotency IdempotencyConfig `yaml:"idempotency" mapstructure:"idempotency"`

	// EncryptionKeyB64 is the base64-encoded 32-byte AES key. Secrets never
	// live in the config file; this is populated from the environment only.
	EncryptionKeyB64 string `yaml:"-" mapstructure:"-"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr          string `yaml:"addr" mapstructure:"addr"`
	AllowedOrigin string `yaml:"allowed_origin" mapstructure:"allowed_origin"`
}

// StorageConfig configures the SQLite store
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// IdempotencyConfig configures claim handling
type IdempotencyConfig struct {
	// ClaimTTL is how long an unfinalized claim is honored before expiry
	ClaimTTL time.Duration `yaml:"claim_ttl" mapstructure:"claim_ttl"`

	// InFlightRetryDelay and InFlightRetries bound how long a request waits
	// on a claim held by a concurrent request
	InFlightRetryDelay time.Duration `yaml:"in_flight_retry_delay" mapstructure:"in_flight_retry_delay"`
	InFlightRetries    int           `yaml:"in_flight_retries" mapstructure:"in_flight_retries"`
}
