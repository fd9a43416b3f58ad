package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/config"
	"github.com/nvandessel/hydrorun/internal/mcp"
	"github.com/nvandessel/hydrorun/internal/store"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve hydrorun tools to MCP clients over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout bound to the
working directory. Tools read the tree, render engine inputs, parse the
report, score the last run and list recorded runs. Engine runs are not
exposed.

Tool calls are audited to ~/.hydrorun/audit.jsonl with paths redacted.

Example client configuration:
  {"command": "hydrorun", "args": ["mcp-server", "--working-dir", "/srv/basins/loire"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := workingDir(cfg)
			if err != nil {
				return err
			}
			extraction, err := codec.ParseExtraction(cfg.Run.Extraction)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			var history store.HistoryStore
			if cfg.History.Enabled {
				h, err := openHistory(cfg)
				if err != nil {
					return err
				}
				history = h
			}

			noAudit, _ := cmd.Flags().GetBool("no-audit")
			var auditPath string
			if !noAudit {
				if home, err := config.Dir(); err == nil {
					auditPath = filepath.Join(home, "audit.jsonl")
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:       "hydrorun",
				Version:    version,
				WorkingDir: dir,
				Charset:    cfg.Engine.Charset,
				Extraction: extraction,
				History:    history,
				AuditPath:  auditPath,
				Logger:     log,
			})
			if err != nil {
				if history != nil {
					history.Close()
				}
				return err
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().Bool("no-audit", false, "Do not write the tool call audit log")
	return cmd
}
