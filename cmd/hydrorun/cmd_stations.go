package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/stations"
)

func newStationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Validate gauging station codes",
		Long: `Check station codes against the registry file named by stations.file
(one code per line, extra columns ignored).

Examples:
  hydrorun stations list
  hydrorun stations check K4470010 K4470020`,
	}
	cmd.AddCommand(newStationsListCmd(), newStationsCheckCmd())
	return cmd
}

func stationRegistry(cmd *cobra.Command) (*stations.Registry, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Stations.File == "" {
		return nil, errors.New("no station registry configured (set stations.file)")
	}
	return stations.NewRegistry(stations.FileSource{Path: cfg.Stations.File}), nil
}

func newStationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known station codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := stationRegistry(cmd)
			if err != nil {
				return err
			}
			codes, err := reg.Codes(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"stations": codes, "count": len(codes)})
			}
			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newStationsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <code>...",
		Short: "Check that station codes exist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := stationRegistry(cmd)
			if err != nil {
				return err
			}
			results := make(map[string]bool, len(args))
			var unknown []string
			for _, code := range args {
				err := reg.Check(cmd.Context(), code)
				switch {
				case err == nil:
					results[code] = true
				case errors.Is(err, stations.ErrUnknownStation):
					results[code] = false
					unknown = append(unknown, code)
				default:
					return err
				}
			}
			if jsonOutput(cmd) {
				if err := printJSON(cmd, map[string]any{"stations": results, "unknown": len(unknown)}); err != nil {
					return err
				}
			} else {
				for _, code := range args {
					status := "ok"
					if !results[code] {
						status = "unknown"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, status)
				}
			}
			if len(unknown) > 0 {
				return fmt.Errorf("%d unknown station code(s)", len(unknown))
			}
			return nil
		},
	}
}
