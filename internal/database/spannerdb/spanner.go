// Package spannerdb is the Cloud Spanner backend.
//
// A batch becomes one Insert mutation per row, applied with a single
// Client.Apply so the batch commits atomically. The client honours
// SPANNER_EMULATOR_HOST, which points it at a local emulator.
package spannerdb

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/JonMunkholm/csvimport/internal/core"
	"github.com/JonMunkholm/csvimport/internal/database"
	"github.com/JonMunkholm/csvimport/internal/logging"
)

func init() {
	database.Register("spanner", database.DriverFunc(Open))
}

// Handle is an open Spanner client bound to one database.
type Handle struct {
	client *spanner.Client
}

// DatabasePath returns the fully qualified database name for t.
func DatabasePath(t database.Target) (string, error) {
	if t.Project == "" {
		return "", errors.New("spanner: project not set (SPANNER_PROJECT)")
	}
	if t.Instance == "" || t.Database == "" {
		return "", errors.New("spanner: instance and database IDs are required")
	}
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", t.Project, t.Instance, t.Database), nil
}

// Open creates a Spanner client for the database described by t.
func Open(ctx context.Context, t database.Target) (core.Handle, error) {
	path, err := DatabasePath(t)
	if err != nil {
		return nil, err
	}

	client, err := spanner.NewClient(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("spanner: %w", err)
	}
	logging.FromContext(ctx).Debug("spanner client created", "database", path)
	return &Handle{client: client}, nil
}

// Client exposes the underlying client, mainly for tests.
func (h *Handle) Client() *spanner.Client {
	return h.client
}

// BatchInsert applies one Insert mutation per row in a single commit.
func (h *Handle) BatchInsert(ctx context.Context, table string, columns []core.Column, rows [][]any) error {
	names := core.ColumnNames(columns)
	ms := make([]*spanner.Mutation, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = encode(v, columns[j].Type)
		}
		ms[i] = spanner.Insert(table, names, vals)
	}

	_, err := h.client.Apply(ctx, ms)
	return err
}

// Close releases the client's sessions.
func (h *Handle) Close() error {
	h.client.Close()
	return nil
}

// encode returns v, or a typed NULL for the column when v is nil.
// civil.Date and time.Time are native Spanner client types.
func encode(v any, t core.ColumnType) any {
	if v != nil {
		return v
	}
	switch t {
	case core.TypeInteger:
		return spanner.NullInt64{}
	case core.TypeFloat:
		return spanner.NullFloat64{}
	case core.TypeBoolean:
		return spanner.NullBool{}
	case core.TypeDate:
		return spanner.NullDate{}
	case core.TypeTimestamp:
		return spanner.NullTime{}
	default:
		return spanner.NullString{}
	}
}
