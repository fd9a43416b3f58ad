package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/config"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/runner"
	"github.com/nvandessel/hydrorun/internal/tree"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the working directory layout",
		Long: `Create config/, data/ and output/ in the working directory and write the
default configuration tree to config/auto.yaml, ready to edit.

With --global, also write ~/.hydrorun/config.yaml holding the default
application settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := workingDir(cfg)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			global, _ := cmd.Flags().GetBool("global")

			if err := engine.PrepareWorkspace(dir); err != nil {
				return err
			}

			result := map[string]any{"status": "initialized", "path": dir}
			treePath := filepath.Join(dir, runner.TreeFile)
			wrote, err := writeDefaultTree(treePath, force)
			if err != nil {
				return err
			}
			result["tree_written"] = wrote

			if global {
				path, err := config.Path()
				if err != nil {
					return err
				}
				if _, statErr := os.Stat(path); statErr == nil && !force {
					result["config_written"] = false
				} else {
					if err := config.Save(config.Default(), path); err != nil {
						return err
					}
					result["config_written"] = true
				}
				result["config"] = path
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized working directory %s\n", dir)
			if wrote {
				fmt.Fprintf(out, "  wrote default tree to %s\n", runner.TreeFile)
			} else {
				fmt.Fprintf(out, "  kept existing %s (use --force to overwrite)\n", runner.TreeFile)
			}
			if global {
				fmt.Fprintf(out, "  settings: %s\n", result["config"])
			}
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	cmd.Flags().Bool("global", false, "Also write default settings to ~/.hydrorun/config.yaml")
	return cmd
}

func writeDefaultTree(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	t, err := tree.Default()
	if err != nil {
		return false, err
	}
	b, err := yaml.Marshal(t)
	if err != nil {
		return false, fmt.Errorf("dumping tree: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
