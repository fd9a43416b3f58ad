package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hydrorun settings",
		Long: `View and modify hydrorun settings.

Settings are stored in ~/.hydrorun/config.yaml. Environment variables
(HYDRORUN_ENGINE, bin_Garden, HYDRORUN_MODE, ...) override the file at load
time; list and get show the effective values.

Examples:
  hydrorun config list
  hydrorun config get engine.path
  hydrorun config set engine.timeout 10m
  hydrorun config set history.enabled true`,
	}
	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, cfg)
			}
			rows := make([][]string, 0, len(config.Keys()))
			for _, k := range config.Keys() {
				v, _ := cfg.Get(k)
				rows = append(rows, []string{k, valueOrDefault(fmt.Sprint(v), "(not set)")})
			}
			path, _ := config.Path()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration (%s):\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KEY", "VALUE"}, rows))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"key": args[0], "value": v})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], v)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			path, err := config.Path()
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not
			// persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}
			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"status": "updated", "key": key, "value": value})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
