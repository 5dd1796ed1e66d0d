package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimport/internal/config"
	"github.com/JonMunkholm/csvimport/internal/core"
	"github.com/JonMunkholm/csvimport/internal/logging"
)

// newCheckCmd validates a CSV file against a type map without connecting to
// a database. It exits with the input error code when any row would fail.
func (a *app) newCheckCmd() *cobra.Command {
	var filePath, formatPath string
	var maxIssues int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report every row of a CSV file that would fail to import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.started = true

			cfg, err := config.LoadOffline()
			if err != nil {
				return withCode(exitConfig, err)
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format, a.stderr)

			types, err := core.LoadTypeMap(formatPath)
			if err != nil {
				return err
			}

			report, err := core.Check(cmd.Context(), filePath, types,
				core.SourceOptions{SanitizeUTF8: cfg.Import.SanitizeUTF8}, maxIssues)
			if err != nil {
				return err
			}

			a.printReport(report)
			return report.Err()
		},
	}

	cmd.Flags().StringVar(&filePath, "file_path", "", "CSV file to check (required)")
	cmd.Flags().StringVar(&formatPath, "format_path", "", formatPathUsage)
	cmd.Flags().IntVar(&maxIssues, "max_issues", core.DefaultMaxIssues, "Failing rows to list")
	_ = cmd.MarkFlagRequired("file_path")

	return cmd
}

func (a *app) printReport(r *core.CheckReport) {
	fmt.Fprintf(a.stdout, "[INFO] Checked %d rows in %d columns.\n", r.TotalRows, len(r.Columns))
	if r.Valid() {
		fmt.Fprintf(a.stdout, "[SUCCESS] All %d rows would import.\n", r.TotalRows)
		return
	}

	for _, issue := range r.Issues {
		for _, fe := range issue.Errors {
			fmt.Fprintf(a.stdout, "[LINE %d] %s\n", issue.Line, fe.Error())
		}
	}
	if hidden := r.ErrorRows - len(r.Issues); hidden > 0 {
		fmt.Fprintf(a.stdout, "... and %d more rows\n", hidden)
	}

	names := make([]string, 0, len(r.ColumnErrors))
	for name := range r.ColumnErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.stdout, "[COLUMN %s] %d bad values\n", name, r.ColumnErrors[name])
	}
	fmt.Fprintf(a.stdout, "[FAILED] %d of %d rows would fail to import.\n", r.ErrorRows, r.TotalRows)
}
