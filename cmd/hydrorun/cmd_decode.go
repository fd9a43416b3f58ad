package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/tree"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Read an engine file back into tree values",
		Long: `Decode an engine input file, or the engine's parameter echo, into the
tree values it carries and print them as YAML. The output is a valid
override file.

Examples:
  hydrorun decode output/gardepara.out
  hydrorun decode config/auto.rga --kind primary
  hydrorun decode output/gardepara.out --extraction separators --tree`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			extraction, _ := cmd.Flags().GetString("extraction")
			if extraction == "" {
				extraction = cfg.Run.Extraction
			}
			e, err := codec.ParseExtraction(extraction)
			if err != nil {
				return err
			}

			var d *codec.Decoder
			switch kind {
			case "secondary":
				d = codec.NewSecondaryDecoder(e)
			case "primary":
				d = codec.NewPrimaryDecoder(e)
			default:
				return fmt.Errorf("unknown kind %q: expected primary or secondary", kind)
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			text, err := codec.DecodeText(cfg.Engine.Charset, raw)
			if err != nil {
				return err
			}
			p, err := d.Decode(text)
			if err != nil {
				return err
			}

			var v any = p
			if full, _ := cmd.Flags().GetBool("tree"); full {
				t, err := tree.Default(p)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, t.Partial())
				}
				v = t
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, p)
			}
			b, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().String("kind", "secondary", "File layout: primary or secondary")
	cmd.Flags().String("extraction", "", "Field extraction: offsets or separators (default from config)")
	cmd.Flags().Bool("tree", false, "Apply the decoded values to the default tree and print the whole tree")
	return cmd
}
