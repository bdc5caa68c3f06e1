package main

import (
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	dataDir string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "engine",
		Short:         "Scrapes vendor gold rates on a schedule and stores them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "",
		"directory holding config.yml, the lock file and the SQLite database (default $GOLDRATES_DATA_DIR or .)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newOnceCmd(opts))
	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newRatesCmd(opts))
	root.AddCommand(newRenderCmd())
	root.AddCommand(newCaptureCmd())
	root.AddCommand(newVersionCmd())
	return root
}
