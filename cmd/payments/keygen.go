package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fssonca/ezy-collect-challenge/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new base64-encoded 32-byte encryption key",
	Long: `Generate a fresh AES-256 key for PAYMENTS_ENCRYPTION_KEY_B64.

The key is printed once and never stored; keep it in your secret manager.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}
