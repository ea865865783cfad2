package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fssonca/ezy-collect-challenge/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default payments.yaml config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.WriteDefault(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
