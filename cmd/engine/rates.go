package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"goldrates-engine/internal/store"
)

func newRatesCmd(root *rootOptions) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print stored rates as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), resolveDataDir(root.dataDir))
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.store.ListRates(cmd.Context(), company)
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []store.RateRow{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "only this company")
	return cmd
}
