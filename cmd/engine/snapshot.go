package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the selected vendor's rendered page for offline replay",
		Long: "snapshot runs the renderer in capture mode against the selected vendor and writes\n" +
			"the markup to a file. Point sites.list[].url at file://<path> to replay it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := resolveDataDir(root.dataDir)
			a, err := newApp(cmd.Context(), dataDir)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.config()
			v, _, err := cfg.Vendor()
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(dataDir, "captures",
					fmt.Sprintf("%s-%s.html", v.Site, time.Now().UTC().Format("20060102T150405Z")))
			}
			sum, err := a.bridge.Capture(cmd.Context(), v.URL, out,
				cfg.NavigationTimeout(), cfg.PostLoadWait(), cfg.ScriptTimeout())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default <data-dir>/captures/<site>-<time>.html)")
	return cmd
}
