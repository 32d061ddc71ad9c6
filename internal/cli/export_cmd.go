package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/alexanderramin/timekeep/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(a *App) *cobra.Command {
	var (
		flags   reportFlags
		format  string
		subject string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export time logs or a report snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := export.ParseSubject(subject)
			if err != nil {
				return err
			}
			if output == "" && f == export.FormatXLSX {
				return fmt.Errorf("xlsx export needs --output")
			}

			var w io.Writer = cmd.OutOrStdout()
			var file *os.File
			if output != "" && output != "-" {
				file, err = os.CreateTemp(filepath.Dir(output), ".timekeep-export-*")
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer os.Remove(file.Name())
				defer file.Close()
				w = file
			}

			res, err := a.Export.Export(cmd.Context(), w, app.ExportRequest{
				ReportRequest: req,
				Format:        f,
				Subject:       s,
			})
			if err != nil {
				return err
			}
			if file == nil {
				return nil
			}

			// The target only appears once the export completed.
			if err := file.Close(); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			if err := os.Rename(file.Name(), output); err != nil {
				return fmt.Errorf("move export into place: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d rows (%s) to %s\n",
				formatter.StyleGreen.Render("Exported"), res.Rows,
				formatter.HumanRange(res.Start, res.End), output)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, xlsx or json")
	cmd.Flags().StringVar(&subject, "subject", "logs", "What to export: logs or snapshot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
