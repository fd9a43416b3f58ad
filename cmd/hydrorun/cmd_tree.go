package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/tree"
)

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect the configuration tree",
		Long: `Inspect the configuration tree of the working directory.

The tree is the last run's dump (config/auto.yaml) when present, otherwise
the built-in defaults. Override files and assignments are layered on top.

Examples:
  hydrorun tree show physical_parameters
  hydrorun tree get physical_parameters.basin_area.val
  hydrorun tree params --set physical_parameters.basin_area.val=612
  hydrorun tree dump --override loire.hcl --out loire.yaml`,
	}
	cmd.AddCommand(
		newTreeShowCmd(),
		newTreeGetCmd(),
		newTreeParamsCmd(),
		newTreeDumpCmd(),
	)
	return cmd
}

// treeFromFlags loads the tree for the working directory named by the
// persistent flags.
func treeFromFlags(cmd *cobra.Command) (*tree.Tree, bool, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, false, err
	}
	dir, err := workingDir(cfg)
	if err != nil {
		return nil, false, err
	}
	return loadTree(cmd, dir)
}

func newTreeShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Print the tree, or the subtree at path, as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := treeFromFlags(cmd)
			if err != nil {
				return err
			}
			var path tree.Path
			if len(args) == 1 {
				if path, err = tree.ParsePath(args[0]); err != nil {
					return err
				}
			}
			if jsonOutput(cmd) {
				v, err := subtreePartial(t, path)
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			}
			node, err := t.Subtree(path)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(node)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	addTreeFlags(cmd)
	return cmd
}

// subtreePartial renders the leaves under path as nested maps, or the
// bare value when path names a leaf.
func subtreePartial(t *tree.Tree, path tree.Path) (any, error) {
	n, err := t.Node(path)
	if err != nil {
		return nil, err
	}
	if n.IsLeaf() {
		return n.Value().Interface(), nil
	}
	var cur any = t.Partial()
	for _, k := range path {
		m, ok := cur.(tree.Partial)
		if !ok {
			return nil, nil
		}
		cur = m[k]
	}
	return cur, nil
}

func newTreeGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print one scalar value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := treeFromFlags(cmd)
			if err != nil {
				return err
			}
			path, err := tree.ParsePath(args[0])
			if err != nil {
				return err
			}
			v, err := t.Get(path)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{
					"key":   args[0],
					"kind":  v.Kind().String(),
					"value": v.Interface(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Text())
			return nil
		},
	}
	addTreeFlags(cmd)
	return cmd
}

func newTreeParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Tabulate the physical parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := treeFromFlags(cmd)
			if err != nil {
				return err
			}
			params, err := t.Parameters()
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				out := make([]map[string]any, 0, len(params))
				for _, p := range params {
					out = append(out, map[string]any{
						"name": p.Name, "value": p.Value, "optimise": p.Optimise, "min": p.Min, "max": p.Max,
					})
				}
				return printJSON(cmd, out)
			}
			rows := make([][]string, 0, len(params))
			for _, p := range params {
				rows = append(rows, []string{
					p.Name, formatNumber(p.Value), yesNo(p.Optimise), formatNumber(p.Min), formatNumber(p.Max),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"PARAMETER", "VALUE", "OPTIMISE", "MIN", "MAX"}, rows))
			return nil
		},
	}
	addTreeFlags(cmd)
	return cmd
}

func newTreeDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the full tree as YAML",
		Long: `Write the full tree as YAML to --out, or to stdout. The dump can be
used as an override file or copied to config/auto.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := treeFromFlags(cmd)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(t)
			if err != nil {
				return fmt.Errorf("dumping tree: %w", err)
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]string{"status": "written", "path": out})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tree written to %s\n", out)
			return nil
		},
	}
	addTreeFlags(cmd)
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}
