package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/service"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/logger"
)

func newBranchesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List branches with their head, lock state and MRCM auto-update setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger.New(cfg.Log))
			if err != nil {
				return err
			}
			defer a.close()

			branches, err := a.versioning.Branches(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tHEAD\tLOCKED\tAUTO-UPDATE")
			for _, b := range branches {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\n",
					b.Path,
					b.Head.Format("2006-01-02T15:04:05.000Z07:00"),
					b.Locked,
					b.MetadataValue(service.MetadataDisableAutoUpdate) != "true",
				)
			}
			return w.Flush()
		},
	}
}
