package config

import (
	"os"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DBPath: "data/payments.db",
		},
		Idempotency: IdempotencyConfig{
			ClaimTTL:           30 * time.Second,
			InFlightRetryDelay: 50 * time.Millisecond,
			InFlightRetries:    20,
		},
	}
}

// WriteDefault writes a commented default configuration file
func WriteDefault(path string) error {
	content := `# Payments Server Configuration
version: "1"

server:
  addr: ":8080"
  # allowed_origin: "https://app.example.com"

storage:
  db_path: "data/payments.db"

idempotency:
  # How long an unfinalized idempotency claim is honored before it is
  # considered abandoned and becomes re-claimable.
  claim_ttl: 30s
  # Polling budget for requests waiting on a claim held by a concurrent
  # request.
  in_flight_retry_delay: 50ms
  in_flight_retries: 20
`
	return os.WriteFile(path, []byte(content), 0644)
}
