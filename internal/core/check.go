package core

// check.go validates a CSV file against its type map without touching a database.
//
// Source.Next stops at the first bad value because a chunked import must not
// skip rows. Check keeps reading and collects every problem so a file can be
// fixed in one pass. Counts cover the whole file; samples are capped.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/csvimport/internal/logging"
)

// DefaultMaxIssues is the number of failing rows kept as samples when the
// caller does not choose a limit.
const DefaultMaxIssues = 20

// checkCancelEvery is how many rows are read between context checks.
const checkCancelEvery = 1000

// FieldError is one problem in one field.
type FieldError struct {
	Column  string // empty for row-level problems
	Value   string
	Message string
}

func (e FieldError) Error() string {
	if e.Column == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %q %s", e.Column, e.Value, e.Message)
}

// RowIssue lists the problems found on one CSV record.
type RowIssue struct {
	Line   int // 1-based line in the file
	Row    int // 0-based data row index
	Errors []FieldError
}

// CheckReport is the result of a Check pass.
type CheckReport struct {
	Path         string
	Columns      []Column
	TotalRows    int
	ErrorRows    int
	ColumnErrors map[string]int // problems per column name
	Issues       []RowIssue     // first failing rows, in file order
	Duration     time.Duration
}

// Valid reports whether every row would import.
func (r *CheckReport) Valid() bool {
	return r.ErrorRows == 0
}

// Err returns a MalformedInputError pointing at the first failing row, or nil.
func (r *CheckReport) Err() error {
	if r.Valid() {
		return nil
	}
	line := 0
	if len(r.Issues) > 0 {
		line = r.Issues[0].Line
	}
	return &MalformedInputError{
		Path:   r.Path,
		Line:   line,
		Reason: ReasonInvalidRows,
		Err:    fmt.Errorf("%d of %d rows", r.ErrorRows, r.TotalRows),
	}
}

// Check reads the whole file at path, coercing every field with types, and
// reports each row an import would reject. Header and file errors are
// returned as errors; row problems are only recorded in the report.
func Check(ctx context.Context, path string, types TypeMap, opts SourceOptions, maxIssues int) (*CheckReport, error) {
	start := time.Now()
	if maxIssues <= 0 {
		maxIssues = DefaultMaxIssues
	}

	src, err := OpenSource(path, types, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	logger := logging.WithFields(ctx, "file", path)
	if unknown := src.UnknownTypes(); len(unknown) > 0 {
		logger.Warn("type map names columns not in header", "columns", unknown)
	}

	report := &CheckReport{
		Path:         path,
		Columns:      src.Columns(),
		ColumnErrors: make(map[string]int),
	}

	for {
		if report.TotalRows%checkCancelEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := src.reader.Read()
		if err == io.EOF {
			break
		}

		issue := RowIssue{Row: report.TotalRows}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) || !errors.Is(pe.Err, csv.ErrFieldCount) {
				return nil, src.parseError(err)
			}
			issue.Line = pe.Line
			issue.Errors = []FieldError{{
				Message: fmt.Sprintf("has %d fields, header has %d", len(record), len(report.Columns)),
			}}
		} else {
			issue.Line, _ = src.reader.FieldPos(0)
			issue.Errors = src.validateRow(record)
		}
		report.TotalRows++

		if len(issue.Errors) == 0 {
			continue
		}
		report.ErrorRows++
		for _, fe := range issue.Errors {
			if fe.Column != "" {
				report.ColumnErrors[fe.Column]++
			}
		}
		if len(report.Issues) < maxIssues {
			report.Issues = append(report.Issues, issue)
		}
	}

	report.Duration = time.Since(start)
	logger.Debug("check finished",
		"rows", report.TotalRows,
		"error_rows", report.ErrorRows,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// validateRow returns every problem in record rather than just the first.
func (s *Source) validateRow(record []string) []FieldError {
	var errs []FieldError
	for i, field := range record {
		col := s.columns[i]
		if !s.opts.SanitizeUTF8 && !utf8.ValidString(field) {
			errs = append(errs, FieldError{
				Column:  col.Name,
				Value:   strings.ToValidUTF8(field, "\uFFFD"),
				Message: "is not valid UTF-8",
			})
			continue
		}
		if _, err := col.Type.Coerce(field); err != nil {
			errs = append(errs, FieldError{
				Column:  col.Name,
				Value:   field,
				Message: fmt.Sprintf("is not a valid %s", col.Type),
			})
		}
	}
	return errs
}
