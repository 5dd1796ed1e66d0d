package core

// driver.go runs one import: connect, load types, read batches, write them.
//
// A Driver moves through NotStarted -> Running -> Completed | Failed exactly
// once. Batches are read and written one at a time on the calling goroutine.
// A failed batch stops the run; batches already written stay committed.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/JonMunkholm/csvimport/internal/logging"
	"github.com/google/uuid"
)

// ErrAlreadyRun is returned when Run is called on a Driver that has already run.
var ErrAlreadyRun = errors.New("driver has already run")

// Driver orchestrates a single import run.
type Driver struct {
	connector Connector
	out       io.Writer
	progress  ProgressCallback
	sanitize  bool

	mu    sync.Mutex
	state RunState
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithOutput sets where progress lines are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) DriverOption {
	return func(d *Driver) { d.out = w }
}

// WithProgress registers a callback invoked after each written batch.
func WithProgress(fn ProgressCallback) DriverOption {
	return func(d *Driver) { d.progress = fn }
}

// WithSanitizeUTF8 replaces invalid UTF-8 in the input instead of failing.
func WithSanitizeUTF8(enabled bool) DriverOption {
	return func(d *Driver) { d.sanitize = enabled }
}

// NewDriver creates a Driver that obtains its database handle from connector.
func NewDriver(connector Connector, opts ...DriverOption) *Driver {
	d := &Driver{
		connector: connector,
		out:       os.Stdout,
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() RunState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s RunState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run imports job.FilePath into job.Table. The returned result is non-nil
// whenever the run started, including on failure.
func (d *Driver) Run(ctx context.Context, job Job) (*IngestionResult, error) {
	d.mu.Lock()
	if d.state != StateNotStarted {
		d.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	d.state = StateRunning
	d.mu.Unlock()

	runID := uuid.New().String()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.WithFields(ctx, "table", job.Table, "file", job.FilePath)

	result := &IngestionResult{
		RunID: runID,
		State: StateRunning,
		Mode:  ModeFor(job.ChunkSize),
	}
	start := time.Now()

	err := d.run(ctx, job, result)

	result.Duration = time.Since(start)
	if err != nil {
		result.State = StateFailed
		result.Err = err
		d.setState(StateFailed)
		logger.Error("import failed",
			"error", err,
			"batches_written", result.BatchesSucceeded,
			"rows_written", result.RowsWritten,
		)
		return result, err
	}

	result.State = StateCompleted
	d.setState(StateCompleted)
	logger.Info("import completed",
		"mode", result.Mode,
		"batches", result.BatchesSucceeded,
		"rows", result.RowsWritten,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (d *Driver) run(ctx context.Context, job Job, result *IngestionResult) error {
	logger := logging.WithFields(ctx, "table", job.Table)

	handle, err := d.connector.Connect(ctx, job.InstanceID, job.DatabaseID)
	if err != nil {
		var connErr *ConnectError
		if !errors.As(err, &connErr) {
			err = &ConnectError{Instance: job.InstanceID, Database: job.DatabaseID, Err: err}
		}
		return err
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			logger.Warn("close database handle", "error", cerr)
		}
	}()

	types, err := LoadTypeMap(job.FormatPath)
	if err != nil {
		return err
	}

	src, err := OpenSource(job.FilePath, types, SourceOptions{
		BatchSize:    job.ChunkSize,
		SanitizeUTF8: d.sanitize,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	if unknown := src.UnknownTypes(); len(unknown) > 0 {
		logger.Warn("type map names columns not in header", "columns", unknown)
	}

	if result.Mode == ModeChunked {
		fmt.Fprintf(d.out, "[INFO] Importing file in chunks of %d rows...\n", job.ChunkSize)
	} else {
		fmt.Fprintln(d.out, "[INFO] Importing file in a single batch...")
	}

	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("batch %d: %w", result.BatchesSucceeded+1, err)
		}

		if result.Mode == ModeChunked {
			fmt.Fprintf(d.out, "[BATCH %d] Inserting %d rows...\n", batch.Index, batch.Len())
		}

		result.BatchesAttempted++
		n, err := WriteBatch(ctx, handle, job.Table, batch)
		if err != nil {
			return fmt.Errorf("batch %d: %w", batch.Index, err)
		}
		result.BatchesSucceeded++
		result.RowsWritten += n

		logger.Debug("batch written",
			"batch", batch.Index,
			"rows", n,
			"first_line", batch.FirstLine,
		)

		if d.progress != nil {
			d.progress(Progress{
				RunID:       result.RunID,
				State:       StateRunning,
				Batch:       batch.Index,
				Rows:        n,
				RowsWritten: result.RowsWritten,
				BytesRead:   src.BytesRead(),
				BytesTotal:  src.Size(),
			})
		}
	}

	if result.Mode == ModeChunked {
		fmt.Fprintf(d.out, "[SUCCESS] All chunks inserted successfully. %d rows in %d batches.\n",
			result.RowsWritten, result.BatchesSucceeded)
	} else {
		fmt.Fprintf(d.out, "[SUCCESS] Data inserted successfully. %d rows in 1 batch.\n",
			result.RowsWritten)
	}
	return nil
}
