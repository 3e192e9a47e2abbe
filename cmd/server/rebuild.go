package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/logger"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

func newRebuildCommand(configPath *string) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "rebuild <branch>",
		Short: "Regenerate every MRCM rule and template on a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := requestcontext.WithActor(cmd.Context(), "cli")
			a, err := newApp(ctx, cfg, logger.New(cfg.Log))
			if err != nil {
				return err
			}
			defer a.close()

			run := a.module.Service.UpdateAll
			if preview {
				run = a.module.Service.Preview
			}
			result, err := run(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "compute the changes without writing them")
	return cmd
}
