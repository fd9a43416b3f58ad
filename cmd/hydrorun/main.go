package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/config"
	"github.com/nvandessel/hydrorun/internal/logging"
	"github.com/nvandessel/hydrorun/internal/overrides"
	"github.com/nvandessel/hydrorun/internal/runner"
	"github.com/nvandessel/hydrorun/internal/tree"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hydrorun",
		Short: "Drive the GARDENIA lumped hydrological model",
		Long: `hydrorun builds the engine's input files from a typed configuration tree,
runs the engine in a working directory, parses its simulation report and
scores the simulated series against observations.

A working directory holds config/ (generated inputs), data/ (observed and
forcing series) and output/ (everything the engine and hydrorun write).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("working-dir", "", "Working directory (default from config run.working_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (default from config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newTreeCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newRunCmd(),
		newParseCmd(),
		newEvaluateCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newStationsCmd(),
		newCorrelateCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// settings loads the application config and applies the persistent flags.
func settings(cmd *cobra.Command) (*config.HydrorunConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dir, _ := cmd.Flags().GetString("working-dir"); dir != "" {
		cfg.Run.WorkingDir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.HydrorunConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

func workingDir(cfg *config.HydrorunConfig) (string, error) {
	dir, err := filepath.Abs(cfg.Run.WorkingDir)
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return dir, nil
}

// addTreeFlags registers the flags that layer overrides onto the tree.
func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("override", nil, "Override file (.yaml, .yml or .hcl), repeatable; later files win")
	cmd.Flags().StringArrayP("set", "s", nil, "Assignment key.path=value, repeatable; applied after override files")
}

// loadTree returns the working directory's tree with --override files and
// --set assignments applied, and whether it came from the last run's dump.
func loadTree(cmd *cobra.Command, dir string) (*tree.Tree, bool, error) {
	files, _ := cmd.Flags().GetStringArray("override")
	sets, _ := cmd.Flags().GetStringArray("set")

	fromFiles, err := overrides.LoadAll(files...)
	if err != nil {
		return nil, false, err
	}
	fromSets, err := overrides.ParseAssignments(sets)
	if err != nil {
		return nil, false, err
	}
	return runner.TreeFor(dir, fromFiles, fromSets)
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
