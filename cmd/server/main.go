package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "mrcm",
		Short:         "Derives MRCM attribute rules and domain templates on versioned branches",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file; environment variables override it")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newRebuildCommand(&configPath))
	root.AddCommand(newBranchesCommand(&configPath))
	return root
}
