package cli

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newReportCmd(a *App) *cobra.Command {
	var (
		flags  reportFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise tracked time for a range",
		Long: `Summarise tracked time for a range.

Totals, billable share, tasks completed and time per task are shown for the
whole scope, followed by members ranked by total time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}
			snap, err := a.Aggregate.Aggregate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSnapshot(snap))
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}
