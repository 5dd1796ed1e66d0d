package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// discardInserter accepts every batch without keeping it.
type discardInserter struct{}

func (discardInserter) BatchInsert(context.Context, string, []Column, [][]any) error { return nil }
func (discardInserter) Close() error                                               { return nil }

// benchCSV writes a CSV with rows data rows and mixed column types.
func benchCSV(b *testing.B, rows int) string {
	b.Helper()
	var buf strings.Builder
	buf.WriteString("id,name,score,active,joined,seen\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&buf, "%d,person %d,%d.5,yes,2024-01-%02d,2024-01-15T10:30:00Z\n", i, i, i%100, i%28+1)
	}
	path := filepath.Join(b.TempDir(), "bench.csv")
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		b.Fatalf("write: %v", err)
	}
	return path
}

var benchTypes = TypeMap{
	"id":     TypeInteger,
	"score":  TypeFloat,
	"active": TypeBoolean,
	"joined": TypeDate,
	"seen":   TypeTimestamp,
}

// ============================================================================
// Coercion Benchmarks
// ============================================================================

// BenchmarkCoerce_Integer benchmarks integer conversion.
// This is a hot path for any integer column.
func BenchmarkCoerce_Integer(b *testing.B) {
	testCases := []string{"123", "-456", "  999  ", "9223372036854775807"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			TypeInteger.Coerce(tc)
		}
	}
}

// BenchmarkCoerce_Float benchmarks float conversion.
func BenchmarkCoerce_Float(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TypeFloat.Coerce("1234.5678")
	}
}

// BenchmarkCoerce_Date benchmarks date parsing across layouts.
// Later layouts cost more because earlier ones are tried first.
func BenchmarkCoerce_Date(b *testing.B) {
	testCases := []string{
		"2024-01-15",   // ISO format
		"01/15/2024",   // US format
		"Jan 15, 2024", // Text month
		"1/5/24",       // 2-digit year
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			TypeDate.Coerce(tc)
		}
	}
}

// BenchmarkCoerce_DateISO benchmarks the most common date format.
func BenchmarkCoerce_DateISO(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TypeDate.Coerce("2024-01-15")
	}
}

// BenchmarkCoerce_Timestamp benchmarks RFC 3339 timestamp parsing.
func BenchmarkCoerce_Timestamp(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TypeTimestamp.Coerce("2024-01-15T10:30:00Z")
	}
}

// BenchmarkCoerce_Boolean benchmarks boolean conversion.
func BenchmarkCoerce_Boolean(b *testing.B) {
	testCases := []string{"true", "FALSE", "yes", "n", "1"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			TypeBoolean.Coerce(tc)
		}
	}
}

// ============================================================================
// Input Stream Benchmarks
// ============================================================================

// BenchmarkUTF8Sanitizer_Valid benchmarks the sanitizer on clean input,
// the common case when IMPORT_SANITIZE_UTF8 is on.
func BenchmarkUTF8Sanitizer_Valid(b *testing.B) {
	data := bytes.Repeat([]byte("name,café,日本語,plain ascii text\n"), 10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, newUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// BenchmarkUTF8Sanitizer_Invalid benchmarks input with frequent bad bytes.
func BenchmarkUTF8Sanitizer_Invalid(b *testing.B) {
	data := bytes.Repeat([]byte("caf\xe9,na\xefve,ok\n"), 10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, newUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// BenchmarkWrapInput benchmarks the full input chain (count, BOM, sanitize).
func BenchmarkWrapInput(b *testing.B) {
	data := append([]byte("\xEF\xBB\xBF"), bytes.Repeat([]byte("a,b,c\n"), 50000)...)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in, _ := wrapInput(bytes.NewReader(data), true)
		io.Copy(io.Discard, in)
	}
}

// ============================================================================
// Source Benchmarks
// ============================================================================

// BenchmarkSource_SingleShot benchmarks reading a whole file as one batch.
func BenchmarkSource_SingleShot(b *testing.B) {
	path := benchCSV(b, 10000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		src, err := OpenSource(path, benchTypes, SourceOptions{})
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.Next(); err != nil {
				break
			}
		}
		src.Close()
	}
}

// BenchmarkSource_Chunked compares batch sizes on the same file.
func BenchmarkSource_Chunked(b *testing.B) {
	path := benchCSV(b, 10000)

	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("batch=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				src, err := OpenSource(path, benchTypes, SourceOptions{BatchSize: size})
				if err != nil {
					b.Fatal(err)
				}
				for {
					if _, err := src.Next(); err != nil {
						break
					}
				}
				src.Close()
			}
		})
	}
}

// BenchmarkCheck benchmarks a full validation pass.
func BenchmarkCheck(b *testing.B) {
	path := benchCSV(b, 10000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Check(ctx, path, benchTypes, SourceOptions{}, 0); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Driver Benchmarks
// ============================================================================

// BenchmarkDriver_Run benchmarks a chunked run with the database removed,
// isolating read and coercion cost from the backend.
func BenchmarkDriver_Run(b *testing.B) {
	path := benchCSV(b, 10000)
	connector := ConnectorFunc(func(context.Context, string, string) (Handle, error) {
		return discardInserter{}, nil
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d := NewDriver(connector, WithOutput(io.Discard))
		if _, err := d.Run(ctx, Job{Table: "bench", FilePath: path, ChunkSize: 500}); err != nil {
			b.Fatal(err)
		}
	}
}
