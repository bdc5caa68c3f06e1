package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"goldrates-engine/internal/instance"
)

func newOnceCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single extraction cycle and print its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			dataDir := resolveDataDir(root.dataDir)
			lock, err := instance.Acquire(dataDir)
			if err != nil {
				return err
			}
			defer lock.Release()

			a, err := newApp(ctx, dataDir)
			if err != nil {
				return err
			}
			defer a.Close()

			cycleErr := a.runner.RunCycle(ctx)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(a.runner.Status()); err != nil {
				return err
			}
			return cycleErr
		},
	}
}
