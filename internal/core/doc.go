// Package core provides the import pipeline that moves CSV rows into a
// database table.
//
// The package holds all domain logic independent of any particular database
// or command line. Databases are reached only through the [Connector] and
// [Handle] interfaces, so the same pipeline runs against Cloud Spanner,
// PostgreSQL, SQLite or a test fake.
//
// # Architecture
//
// The pipeline is built from four pieces, leaves first:
//
//   - Type map: [LoadTypeMap] reads an optional column -> type definition.
//   - Record source: [OpenSource] yields typed [RowBatch] values one at a time.
//   - Batch writer: [WriteBatch] sends one batch in one atomic insert.
//   - Driver: [Driver.Run] wires them together for one [Job].
//
// [Check] reuses the record source for a read-only pass that reports every
// failing row instead of stopping at the first.
//
// # Batching
//
// A job's ChunkSize selects the mode. Any value <= 0 loads the whole file as
// one batch. A positive N splits a file of R rows into ceil(R/N) batches of N
// rows, the last possibly shorter. Each batch is committed independently: if
// batch k fails, batches 1..k-1 stay in the table and nothing after k is read.
//
//	d := core.NewDriver(connector, core.WithProgress(report))
//	res, err := d.Run(ctx, core.Job{
//	    InstanceID: "prod",
//	    DatabaseID: "crm",
//	    Table:      "People",
//	    FilePath:   "people.csv",
//	    ChunkSize:  500,
//	})
//
// # Error Handling
//
// Every failure is one of the typed errors in errors.go and aborts the run.
// [MapError] turns them into user-facing messages with a support code:
//
//   - CFG001-CFG002: type map and environment configuration
//   - FILE001-FILE003: input file access
//   - CSV001-CSV005: malformed CSV, and rows rejected by [Check]
//   - TYPE001: value does not match its declared type
//   - DB001-DB006: connection and write failures
//   - ERR000-ERR001: unclassified failures and cancelled runs
package core
