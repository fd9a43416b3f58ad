package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/runner"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <primary|secondary>",
		Short: "Render an engine input file from the tree",
		Long: `Render the primary (.rga) or secondary (.gar) engine input file from the
configuration tree. The text goes to stdout as UTF-8; with --out it is
written in the engine's code page instead.

Examples:
  hydrorun encode secondary
  hydrorun encode primary --out config/auto.rga`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"primary", "secondary"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := workingDir(cfg)
			if err != nil {
				return err
			}
			t, _, err := loadTree(cmd, dir)
			if err != nil {
				return err
			}

			var text string
			switch args[0] {
			case "primary":
				text, err = codec.EncodePrimary(t, runner.SecondaryFile)
			case "secondary":
				text, err = codec.EncodeSecondary(t)
			default:
				return fmt.Errorf("unknown input file %q: expected primary or secondary", args[0])
			}
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			b, err := codec.EncodeText(cfg.Engine.Charset, text)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"status": "written", "kind": args[0], "path": out, "charset": cfg.Engine.Charset})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s input to %s (%s)\n", args[0], out, cfg.Engine.Charset)
			return nil
		},
	}
	addTreeFlags(cmd)
	cmd.Flags().String("out", "", "Write the file in the engine code page instead of printing it")
	return cmd
}
