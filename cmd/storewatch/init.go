package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with every default spelled out, ready to
edit. Refuses to overwrite an existing file unless --force is given.

Example:
  storewatch init --config ./storewatch.yaml --schedule "every 1h"`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	initCmd.Flags().String("schedule", "", "Optional periodic report schedule")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	schedule, _ := cmd.Flags().GetString("schedule")

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.NewDefaultConfig()
	cfg.Schedule = schedule
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return err
	}

	logger.Info("configuration written", "path", configPath)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", configPath)
	return nil
}
