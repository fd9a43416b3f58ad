package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/archive"
	"github.com/nvandessel/hydrorun/internal/config"
	"github.com/nvandessel/hydrorun/internal/pathutil"
	"github.com/nvandessel/hydrorun/internal/store"
)

// archiveDirs lists the directories archives may be written to or read
// from: the archive directory, the working directory and the current one.
func archiveDirs(cfg *config.HydrorunConfig) ([]string, error) {
	dir, err := cfg.ArchiveDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{dir}
	if wd, err := workingDir(cfg); err == nil {
		dirs = append(dirs, wd)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs, nil
}

func retentionPolicy(cfg *config.HydrorunConfig) (archive.RetentionPolicy, error) {
	r := cfg.Archive.Retention
	return archive.NewPolicy(r.MaxCount, r.MaxAge, r.MaxTotalSize)
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write recorded runs to an archive file",
		Long: `Export recorded runs, with their trees, parameters and scores, to a
compressed archive. Without --out the archive goes to the archive directory
(~/.hydrorun/archives) and the retention limits of archive.retention are
applied there.

Examples:
  hydrorun history export
  hydrorun history export --all --out selle-runs.hra`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			limit, _ := cmd.Flags().GetInt("limit")
			out, _ := cmd.Flags().GetString("out")

			opts := store.ListOptions{Limit: limit}
			if !all {
				if opts.WorkingDir, err = workingDir(cfg); err != nil {
					return err
				}
			}

			archiveDir, err := cfg.ArchiveDir()
			if err != nil {
				return err
			}
			generated := out == ""
			if generated {
				out = archive.GeneratePath(archiveDir)
			} else {
				dirs, err := archiveDirs(cfg)
				if err != nil {
					return err
				}
				if err := pathutil.ValidatePath(out, dirs); err != nil {
					return fmt.Errorf("archive path rejected: %w", err)
				}
			}

			var a *archive.Archive
			err = withHistory(cmd, func(h store.HistoryStore) error {
				a, err = archive.Export(cmd.Context(), h, opts, out)
				return err
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			var deleted []string
			if generated {
				policy, err := retentionPolicy(cfg)
				if err != nil {
					return err
				}
				if deleted, err = archive.ApplyRetention(archiveDir, policy); err != nil {
					newLogger(cmd, cfg).Warn("failed to apply archive retention", "error", err)
				}
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"path": out, "runs": len(a.Runs), "pruned": len(deleted)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d run(s) to %s\n", len(a.Runs), out)
			if len(deleted) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  pruned %d old archive(s)\n", len(deleted))
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "Archive file (default: generated in the archive directory)")
	cmd.Flags().Bool("all", false, "Export runs of every working directory")
	cmd.Flags().Int("limit", 0, "Export only the newest N runs (0 for all)")
	return cmd
}

func newHistoryImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Record the runs of an archive file",
		Long: `Import the runs of an archive into the history. Runs already recorded
are skipped, or rejected with --strict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dirs, err := archiveDirs(cfg)
			if err != nil {
				return err
			}
			if err := pathutil.ValidatePath(args[0], dirs); err != nil {
				return fmt.Errorf("archive path rejected: %w", err)
			}
			mode := archive.ImportMerge
			if strict, _ := cmd.Flags().GetBool("strict"); strict {
				mode = archive.ImportStrict
			}

			h, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer h.Close()
			res, err := archive.Import(cmd.Context(), h, args[0], mode)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d run(s), skipped %d already recorded\n", len(res.Imported), len(res.Skipped))
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Fail when a run is already recorded")
	return cmd
}

func newHistoryArchivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "List archives in the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := cfg.ArchiveDir()
			if err != nil {
				return err
			}
			if prune, _ := cmd.Flags().GetBool("prune"); prune {
				policy, err := retentionPolicy(cfg)
				if err != nil {
					return err
				}
				if _, err := archive.ApplyRetention(dir, policy); err != nil {
					return err
				}
			}
			list, err := archive.List(dir)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir, "archives": list, "count": len(list)})
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No archives in %s\n", dir)
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, a := range list {
				status := "ok"
				if !a.Valid {
					status = "unreadable"
				}
				rows = append(rows, []string{
					filepath.Base(a.Path), a.CreatedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprint(a.Runs), fmt.Sprintf("%.1f KB", float64(a.Size)/1024), status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ARCHIVE", "CREATED", "RUNS", "SIZE", "STATUS"}, rows))
			return nil
		},
	}
	cmd.Flags().Bool("prune", false, "Apply archive.retention before listing")
	return cmd
}
