// Package pgdb is the PostgreSQL backend.
//
// It holds a single pgx connection. Each batch is written with one COPY
// inside its own transaction, so a batch is committed entirely or not at all.
package pgdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/csvimport/internal/core"
	"github.com/JonMunkholm/csvimport/internal/database"
)

func init() {
	database.Register("postgres", database.DriverFunc(Open))
}

// Handle is an open PostgreSQL connection.
type Handle struct {
	conn *pgx.Conn
}

// ConnString returns the connection string for t. Target.URL wins; otherwise
// Instance is the host and Database the database name, with libpq
// environment variables (PGUSER, PGPASSWORD, PGPORT) filling the rest.
func ConnString(t database.Target) string {
	if t.URL != "" {
		return t.URL
	}
	var parts []string
	if t.Instance != "" {
		parts = append(parts, "host="+quoteParam(t.Instance))
	}
	if t.Database != "" {
		parts = append(parts, "dbname="+quoteParam(t.Database))
	}
	return strings.Join(parts, " ")
}

func quoteParam(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Open connects to the database described by t.
func Open(ctx context.Context, t database.Target) (core.Handle, error) {
	conn, err := pgx.Connect(ctx, ConnString(t))
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return &Handle{conn: conn}, nil
}

// Conn exposes the underlying connection, mainly for tests.
func (h *Handle) Conn() *pgx.Conn {
	return h.conn
}

// BatchInsert copies rows into table in one transaction.
func (h *Handle) BatchInsert(ctx context.Context, table string, columns []core.Column, rows [][]any) error {
	tx, err := h.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // no-op after Commit

	encoded := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = encode(v)
		}
		encoded[i] = out
	}

	n, err := tx.CopyFrom(ctx, Identifier(table), core.ColumnNames(columns), pgx.CopyFromRows(encoded))
	if err != nil {
		return err
	}
	if int(n) != len(rows) {
		return fmt.Errorf("postgres: copied %d of %d rows", n, len(rows))
	}

	return tx.Commit(ctx)
}

// Close closes the connection.
func (h *Handle) Close() error {
	return h.conn.Close(context.Background())
}

// Identifier splits a possibly schema-qualified table name.
func Identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// encode converts pipeline values into types pgx can encode.
func encode(v any) any {
	if d, ok := v.(civil.Date); ok {
		return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	}
	return v
}
