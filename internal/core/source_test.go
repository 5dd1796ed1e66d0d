package core

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// readAll drains src and returns its batches.
func readAll(t *testing.T, src *Source) []*RowBatch {
	t.Helper()
	var batches []*RowBatch
	for {
		b, err := src.Next()
		if err == io.EOF {
			return batches
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		batches = append(batches, b)
	}
}

func openCSV(t *testing.T, content string, types TypeMap, opts SourceOptions) *Source {
	t.Helper()
	src, err := OpenSource(writeFile(t, "data.csv", content), types, opts)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func peopleCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "%d,person%d\n", i, i)
	}
	return b.String()
}

func TestSource_BatchCounts(t *testing.T) {
	tests := []struct {
		rows        int
		batchSize   int
		wantBatches int
	}{
		{rows: 0, batchSize: 3, wantBatches: 0},
		{rows: 1, batchSize: 3, wantBatches: 1},
		{rows: 3, batchSize: 3, wantBatches: 1},
		{rows: 4, batchSize: 3, wantBatches: 2},
		{rows: 10, batchSize: 3, wantBatches: 4},
		{rows: 10, batchSize: 1, wantBatches: 10},
		{rows: 7, batchSize: 100, wantBatches: 1},
		// Single-shot always yields exactly one batch.
		{rows: 0, batchSize: -1, wantBatches: 1},
		{rows: 10, batchSize: 0, wantBatches: 1},
		{rows: 10, batchSize: -5, wantBatches: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("R=%d/N=%d", tt.rows, tt.batchSize), func(t *testing.T) {
			src := openCSV(t, peopleCSV(tt.rows), nil, SourceOptions{BatchSize: tt.batchSize})
			batches := readAll(t, src)

			if len(batches) != tt.wantBatches {
				t.Fatalf("got %d batches, want %d", len(batches), tt.wantBatches)
			}

			total := 0
			for i, b := range batches {
				if b.Index != i+1 {
					t.Errorf("batch %d has Index %d", i, b.Index)
				}
				if tt.batchSize > 0 && i < len(batches)-1 && b.Len() != tt.batchSize {
					t.Errorf("batch %d has %d rows, want %d", b.Index, b.Len(), tt.batchSize)
				}
				total += b.Len()
			}
			if total != tt.rows {
				t.Errorf("total rows = %d, want %d", total, tt.rows)
			}
		})
	}
}

func TestSource_ReconstructsRows(t *testing.T) {
	const rows = 23
	src := openCSV(t, peopleCSV(rows), TypeMap{"id": TypeInteger}, SourceOptions{BatchSize: 5})

	var got [][]any
	for _, b := range readAll(t, src) {
		got = append(got, b.Rows...)
	}

	want := make([][]any, rows)
	for i := range want {
		want[i] = []any{int64(i + 1), fmt.Sprintf("person%d", i+1)}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_Example(t *testing.T) {
	content := "id,name,age\n1,Alice,30\n2,Bob,25\n"

	src := openCSV(t, content, nil, SourceOptions{BatchSize: 1})
	batches := readAll(t, src)
	if len(batches) != 2 {
		t.Fatalf("chunksize 1: got %d batches, want 2", len(batches))
	}
	if diff := cmp.Diff([]any{"2", "Bob", "25"}, batches[1].Rows[0]); diff != "" {
		t.Errorf("second batch mismatch (-want +got):\n%s", diff)
	}
	if batches[1].FirstLine != 3 {
		t.Errorf("second batch FirstLine = %d, want 3", batches[1].FirstLine)
	}

	src = openCSV(t, content, nil, SourceOptions{})
	batches = readAll(t, src)
	if len(batches) != 1 || batches[0].Len() != 2 {
		t.Fatalf("single-shot: got %d batches", len(batches))
	}
	wantCols := []Column{{"id", TypeString}, {"name", TypeString}, {"age", TypeString}}
	if diff := cmp.Diff(wantCols, src.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_TypedValues(t *testing.T) {
	content := "name,age,active\nAlice,30,true\nBob,,no\n"
	src := openCSV(t, content, TypeMap{"age": TypeInteger, "active": TypeBoolean}, SourceOptions{})

	batches := readAll(t, src)
	want := [][]any{
		{"Alice", int64(30), true},
		{"Bob", nil, false},
	}
	if diff := cmp.Diff(want, batches[0].Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_HeaderHandling(t *testing.T) {
	content := "\xEF\xBB\xBF id , name \n1,Alice\n"
	src := openCSV(t, content, nil, SourceOptions{})

	if diff := cmp.Diff([]string{"id", "name"}, ColumnNames(src.Columns())); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_BlankLinesSkipped(t *testing.T) {
	src := openCSV(t, "id\n1\n\n2\n\n", nil, SourceOptions{})
	batches := readAll(t, src)
	if batches[0].Len() != 2 {
		t.Errorf("got %d rows, want 2", batches[0].Len())
	}
}

func TestSource_CoercionError(t *testing.T) {
	content := "id,name,age\n1,Alice,30\n2,Bob,thirty\n"
	src := openCSV(t, content, TypeMap{"age": TypeInteger}, SourceOptions{BatchSize: 1})

	if _, err := src.Next(); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	_, err := src.Next()
	var coerceErr *TypeCoercionError
	if !errors.As(err, &coerceErr) {
		t.Fatalf("error = %v, want *TypeCoercionError", err)
	}
	if coerceErr.Column != "age" || coerceErr.Value != "thirty" || coerceErr.Line != 3 || coerceErr.Row != 0 {
		t.Errorf("unexpected error detail: %+v", coerceErr)
	}

	// The failure is terminal.
	if _, again := src.Next(); again != err {
		t.Errorf("Next after failure = %v, want same error", again)
	}
}

func TestSource_PaddedTypeMapKey(t *testing.T) {
	content := " age ,name\nthirty,x\n"
	src := openCSV(t, content, TypeMap{" age ": TypeInteger}, SourceOptions{})

	if got := src.Columns()[0]; got != (Column{Name: "age", Type: TypeInteger}) {
		t.Fatalf("first column = %+v, want age/integer", got)
	}

	_, err := src.Next()
	var coerceErr *TypeCoercionError
	if !errors.As(err, &coerceErr) {
		t.Fatalf("error = %v, want *TypeCoercionError", err)
	}
	if coerceErr.Column != "age" || coerceErr.Value != "thirty" {
		t.Errorf("unexpected error detail: %+v", coerceErr)
	}
}

func TestSource_UnknownTypes(t *testing.T) {
	src := openCSV(t, "id,name\n1,a\n", TypeMap{"zip": TypeInteger, "id": TypeInteger, "age": TypeInteger}, SourceOptions{})

	if diff := cmp.Diff([]string{"age", "zip"}, src.UnknownTypes()); diff != "" {
		t.Errorf("UnknownTypes mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_FieldCountMismatch(t *testing.T) {
	content := "id,name\n1,Alice\n2,Bob,extra\n3,Carol\n"
	src := openCSV(t, content, nil, SourceOptions{BatchSize: 10})

	_, err := src.Next()
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want *MalformedInputError", err)
	}
	if malformed.Reason != ReasonFieldCount || malformed.Line != 3 {
		t.Errorf("Reason = %q Line = %d, want %q line 3", malformed.Reason, malformed.Line, ReasonFieldCount)
	}
}

func TestSource_InvalidUTF8(t *testing.T) {
	content := "id,name\n1,Al\x80ice\n"

	src := openCSV(t, content, nil, SourceOptions{})
	_, err := src.Next()
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) || malformed.Reason != ReasonInvalidEncoding {
		t.Fatalf("error = %v, want invalid encoding", err)
	}

	src = openCSV(t, content, nil, SourceOptions{SanitizeUTF8: true})
	batches := readAll(t, src)
	if got := batches[0].Rows[0][1]; got != "Al�ice" {
		t.Errorf("sanitized value = %q", got)
	}
}

func TestOpenSource_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		path   string
		reason string // empty for FileAccessError
	}{
		{"missing file", filepath.Join(dir, "missing.csv"), ""},
		{"directory", dir, ""},
		{"empty file", writeFile(t, "empty.csv", ""), ReasonMissingHeader},
		{"blank header", writeFile(t, "blank.csv", "id,,name\n1,2,3\n"), ReasonBadHeader},
		{"duplicate header", writeFile(t, "dup.csv", "id,name,id\n1,2,3\n"), ReasonBadHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenSource(tt.path, nil, SourceOptions{})
			if tt.reason == "" {
				var accessErr *FileAccessError
				if !errors.As(err, &accessErr) {
					t.Fatalf("error = %v, want *FileAccessError", err)
				}
				return
			}
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want *MalformedInputError", err)
			}
			if malformed.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", malformed.Reason, tt.reason)
			}
		})
	}
}

func TestSource_Progress(t *testing.T) {
	content := peopleCSV(50)
	src := openCSV(t, content, nil, SourceOptions{BatchSize: 10})

	if src.Size() != int64(len(content)) {
		t.Errorf("Size = %d, want %d", src.Size(), len(content))
	}
	readAll(t, src)
	if src.BytesRead() != int64(len(content)) {
		t.Errorf("BytesRead = %d, want %d", src.BytesRead(), len(content))
	}
}

func TestSource_CloseTwice(t *testing.T) {
	src := openCSV(t, peopleCSV(1), nil, SourceOptions{})
	if err := src.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
