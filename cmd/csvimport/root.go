package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimport/internal/config"
	"github.com/JonMunkholm/csvimport/internal/core"
	"github.com/JonMunkholm/csvimport/internal/database"
	"github.com/JonMunkholm/csvimport/internal/logging"
)

// app carries the output streams shared by all commands.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	started bool // a command's RunE was entered
}

const formatPathUsage = "Type map file: column -> type, format from extension (.json, .yaml, .toml, .hcl). " +
	"A repeated column keeps its last value in JSON/YAML and is an error in TOML/HCL (optional)"

type importOptions struct {
	instanceID string
	databaseID string
	tableID    string
	filePath   string
	formatPath string
	chunkSize  int
	driver     string
}

func (a *app) newRootCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "csvimport",
		Short: "Import a CSV file into a database table",
		Long: `csvimport reads a CSV file with a header row and inserts its rows into an
existing table. Without --chunksize the whole file is inserted in one batch.
With --chunksize N the file is inserted in batches of N rows, each committed
on its own; if a batch fails, earlier batches stay in the table.

Column types come from an optional type map (--format_path, JSON/YAML/TOML/HCL).
Columns not in the map are imported as strings.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Environment wins over .env so one-off overrides still work.
			if err := godotenv.Load(); err == nil {
				slog.Debug("loaded .env file")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.started = true
			return a.runImport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.instanceID, "instance_id", "", "Database instance ID (required)")
	f.StringVar(&opts.databaseID, "database_id", "", "Database ID (required)")
	f.StringVar(&opts.tableID, "table_id", "", "Target table (required)")
	f.StringVar(&opts.filePath, "file_path", "", "CSV file to import (required)")
	f.StringVar(&opts.formatPath, "format_path", "", formatPathUsage)
	f.IntVar(&opts.chunkSize, "chunksize", -1, "Rows per batch; <= 0 imports the whole file as one batch")
	f.StringVar(&opts.driver, "driver", "", "Database backend: "+strings.Join(config.Drivers, ", ")+" (default from IMPORT_DRIVER)")

	_ = cmd.MarkFlagRequired("instance_id")
	_ = cmd.MarkFlagRequired("database_id")
	_ = cmd.MarkFlagRequired("table_id")
	_ = cmd.MarkFlagRequired("file_path")

	cmd.AddCommand(a.newCheckCmd(), a.newTypeMapCmd(), a.newVersionCmd())
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, opts importOptions) error {
	driverSet := cmd.Flags().Changed("driver")
	if driverSet && !slices.Contains(database.Drivers(), strings.ToLower(opts.driver)) {
		return withCode(exitUsage, fmt.Errorf("unsupported --driver %q (available: %s)",
			opts.driver, strings.Join(database.Drivers(), ", ")))
	}

	cfg, err := config.Load(func(c *config.Config) {
		if driverSet {
			c.Database.Driver = opts.driver
		}
	})
	if err != nil {
		return withCode(exitConfig, err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, a.stderr)
	slog.Debug("configuration loaded", "config", cfg.String())

	if cmd.Flags().Changed("chunksize") && opts.chunkSize <= 0 {
		slog.Warn("non-positive --chunksize, importing the whole file as one batch",
			"chunksize", opts.chunkSize)
	}

	connector := database.Connector(cfg.Database.Driver, database.Target{
		Project: cfg.Database.Project,
		URL:     cfg.Database.URL,
	})

	driver := core.NewDriver(connector,
		core.WithOutput(a.stdout),
		core.WithSanitizeUTF8(cfg.Import.SanitizeUTF8),
		core.WithProgress(func(p core.Progress) {
			slog.Debug("import progress",
				"run_id", p.RunID,
				"batch", p.Batch,
				"rows_written", p.RowsWritten,
				"percent", p.Percent(),
			)
		}),
	)

	_, err = driver.Run(cmd.Context(), core.Job{
		InstanceID: opts.instanceID,
		DatabaseID: opts.databaseID,
		Table:      opts.tableID,
		FilePath:   opts.filePath,
		FormatPath: opts.formatPath,
		ChunkSize:  opts.chunkSize,
	})
	return err
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csvimport version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.started = true
			fmt.Fprintf(a.stdout, "csvimport %s\n", version)
		},
	}
}
