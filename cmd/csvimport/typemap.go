package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimport/internal/core"
)

var typeMapFormats = []string{core.FormatJSON, core.FormatYAML, core.FormatTOML, core.FormatHCL}

// newTypeMapCmd writes a type map template from a CSV header, every column
// typed as string, ready to be edited and passed to --format_path.
func (a *app) newTypeMapCmd() *cobra.Command {
	var filePath, format, out string

	cmd := &cobra.Command{
		Use:   "typemap",
		Short: "Write a type map template from a CSV header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.started = true

			if format == "" {
				format = core.FormatJSON
				if out != "" {
					format = core.FormatForPath(out)
				}
			}
			if !slices.Contains(typeMapFormats, format) {
				return withCode(exitUsage, fmt.Errorf("unsupported --format %q (available: %v)", format, typeMapFormats))
			}

			src, err := core.OpenSource(filePath, nil, core.SourceOptions{})
			if err != nil {
				return err
			}
			cols := src.Columns()
			src.Close()

			data, err := core.MarshalTypeMap(cols, format)
			if err != nil {
				return withCode(exitInput, err)
			}

			if out == "" {
				_, err = a.stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "[INFO] Wrote type map for %d columns to %s\n", len(cols), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file_path", "", "CSV file whose header is used (required)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, yaml, toml, hcl (default from --out extension, else json)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("file_path")

	return cmd
}
