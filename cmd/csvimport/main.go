// Command csvimport loads a CSV file into a database table, optionally in
// fixed-size batches.
//
// Usage:
//
//	csvimport --instance_id prod --database_id crm --table_id People \
//	    --file_path people.csv [--format_path types.yaml] [--chunksize 500]
//
// The backend is chosen by IMPORT_DRIVER (spanner, postgres, sqlite) or
// --driver. Progress lines go to stdout; logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvimport/internal/core"
	_ "github.com/JonMunkholm/csvimport/internal/database/all" // Register all backends
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	// Anything cobra rejects before a command starts is a usage error.
	if !a.started {
		err = withCode(exitUsage, err)
	}

	code := exitCodeFor(err)
	if code == exitUsage {
		fmt.Fprintf(stderr, "Error: %v\nRun 'csvimport --help' for usage.\n", err)
		return code
	}

	fmt.Fprintf(stderr, "[ERROR] %s\n", core.FormatUserError(err))
	if !core.IsUserFacing(err) {
		slog.Error("command failed", "error", err)
	}
	return code
}
