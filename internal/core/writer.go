package core

import (
	"context"
)

// WriteBatch sends every row of b to table in a single BatchInsert call and
// returns the number of rows written. An empty batch issues no call.
//
// A database failure is returned as *WriteError wrapping the database error
// unchanged. WriteBatch never splits or retries a batch.
func WriteBatch(ctx context.Context, h Inserter, table string, b *RowBatch) (int, error) {
	n := b.Len()
	if n == 0 {
		return 0, nil
	}

	if err := h.BatchInsert(ctx, table, b.Columns, b.Rows); err != nil {
		return 0, &WriteError{Table: table, Batch: b.Index, Rows: n, Err: err}
	}
	return n, nil
}
