package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fssonca/ezy-collect-challenge/internal/config"
	"github.com/fssonca/ezy-collect-challenge/internal/core"
	"github.com/fssonca/ezy-collect-challenge/internal/crypto"
	"github.com/fssonca/ezy-collect-challenge/internal/storage"
	"github.com/fssonca/ezy-collect-challenge/internal/web"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the payments HTTP server",
	Long: `Start the payments server.

The encryption key must be provided as a base64-encoded 32-byte value in
PAYMENTS_ENCRYPTION_KEY_B64; the server refuses to start without it.

Examples:
  payments serve
  payments serve --addr :9090 --config /etc/payments/payments.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to config file (default payments.yaml)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	// Fail fast on a missing or malformed encryption key: serving without
	// it would only discover the problem on the first payment.
	key, err := crypto.LoadKey(cfg.EncryptionKeyB64)
	if err != nil {
		return err
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	service := core.NewPaymentService(store, cipher, core.Config{
		ClaimTTL:           cfg.Idempotency.ClaimTTL,
		InFlightRetryDelay: cfg.Idempotency.InFlightRetryDelay,
		InFlightRetries:    cfg.Idempotency.InFlightRetries,
	})

	server := web.NewServer(service, store, web.ServerConfig{
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})

	log.Printf("Starting payments server at %s", cfg.Server.Addr)
	return server.Run(cfg.Server.Addr)
}
