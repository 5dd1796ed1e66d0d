package core

import (
	"context"
	"time"
)

// Inserter is the narrow capability the Batch Writer needs from a database
// handle. BatchInsert must apply all rows atomically: either every row is
// written or none is.
type Inserter interface {
	BatchInsert(ctx context.Context, table string, columns []Column, rows [][]any) error
}

// Handle is an open database connection owned by one import run.
type Handle interface {
	Inserter
	Close() error
}

// Connector obtains a Handle for a database. It is satisfied by the
// database registry and by fakes in tests.
type Connector interface {
	Connect(ctx context.Context, instanceID, databaseID string) (Handle, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, instanceID, databaseID string) (Handle, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, instanceID, databaseID string) (Handle, error) {
	return f(ctx, instanceID, databaseID)
}

// Column is a named column with its resolved type.
type Column struct {
	Name string
	Type ColumnType
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// RowBatch is an ordered group of typed rows sharing one set of columns.
// Every row has exactly len(Columns) values. A nil value is SQL NULL.
type RowBatch struct {
	Index     int // 1-based position of the batch within the file
	FirstLine int // file line of the first row (header is line 1)
	Columns   []Column
	Rows      [][]any
}

// Len returns the number of rows in the batch.
func (b *RowBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Mode is how a file is split into batches.
type Mode string

const (
	ModeSingleShot Mode = "single"
	ModeChunked    Mode = "chunked"
)

// ModeFor returns the mode selected by a batch size. Any value <= 0 means
// the whole file is loaded as one batch.
func ModeFor(batchSize int) Mode {
	if batchSize <= 0 {
		return ModeSingleShot
	}
	return ModeChunked
}

// RunState is the lifecycle state of an import run.
type RunState string

const (
	StateNotStarted RunState = "not_started"
	StateRunning    RunState = "running"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// Terminal reports whether no further transitions are possible from s.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job describes one import: where the data comes from and where it goes.
type Job struct {
	InstanceID string
	DatabaseID string
	Table      string
	FilePath   string
	FormatPath string // optional TypeMap definition
	ChunkSize  int    // <= 0 means single-shot
}

// Progress is reported after every successfully written batch.
type Progress struct {
	RunID       string
	State       RunState
	Batch       int // index of the batch just written
	Rows        int // rows in that batch
	RowsWritten int // cumulative rows written in this run
	BytesRead   int64
	BytesTotal  int64
}

// Percent returns byte-based progress (0-100), or 0 if the file size is unknown.
func (p Progress) Percent() int {
	if p.BytesTotal <= 0 {
		return 0
	}
	return int((p.BytesRead * 100) / p.BytesTotal)
}

// ProgressCallback is called after each successful batch write.
type ProgressCallback func(Progress)

// IngestionResult summarises a finished run. It is never persisted.
type IngestionResult struct {
	RunID            string
	State            RunState
	Mode             Mode
	BatchesAttempted int
	BatchesSucceeded int
	RowsWritten      int
	Duration         time.Duration
	Err              error // non-nil when State is StateFailed
}
