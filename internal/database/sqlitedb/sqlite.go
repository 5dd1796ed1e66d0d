// Package sqlitedb is the SQLite backend, used for local dry runs and tests.
//
// The database file is Target.Instance/Target.Database. Each batch runs in
// one transaction with a prepared INSERT executed per row.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/JonMunkholm/csvimport/internal/core"
	"github.com/JonMunkholm/csvimport/internal/database"

	_ "modernc.org/sqlite"
)

func init() {
	database.Register("sqlite", database.DriverFunc(Open))
}

// Handle is an open SQLite database.
type Handle struct {
	db *sql.DB
}

// Path returns the database file for t: Database inside the Instance
// directory. Target.URL holds the PostgreSQL DSN and is ignored here.
func Path(t database.Target) string {
	return filepath.Join(t.Instance, t.Database)
}

// Open opens (creating if needed) the SQLite file for t.
func Open(ctx context.Context, t database.Target) (core.Handle, error) {
	path := Path(t)
	if path == "" || path == "." {
		return nil, fmt.Errorf("sqlite: database file not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &Handle{db: db}, nil
}

// DB exposes the underlying database, mainly for tests.
func (h *Handle) DB() *sql.DB {
	return h.db
}

// BatchInsert inserts rows in a single transaction.
func (h *Handle) BatchInsert(ctx context.Context, table string, columns []core.Column, rows [][]any) (err error) {
	if len(columns) == 0 {
		return fmt.Errorf("sqlite: insert into %s: no columns", table)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, core.ColumnNames(columns)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for i, row := range rows {
		for j, v := range row {
			args[j] = encode(v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (h *Handle) Close() error {
	return h.db.Close()
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Repeat("?, ", len(columns)-1)+"?",
	)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// encode converts pipeline values into types the sqlite driver stores
// sensibly. Dates are ISO text; timestamps are RFC 3339 text in UTC.
func encode(v any) any {
	switch x := v.(type) {
	case civil.Date:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return v
}
