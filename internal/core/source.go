package core

// source.go reads a CSV file as a lazy, single-pass sequence of typed row batches.
//
// Usage:
//
//	src, err := OpenSource(path, types, SourceOptions{BatchSize: 500})
//	if err != nil { ... }
//	defer src.Close()
//	for {
//	    batch, err := src.Next()
//	    if err == io.EOF { break }
//	    if err != nil { ... }
//	    // write batch
//	}

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrNotAFile is wrapped by FileAccessError when the input path is a directory
// or other non-regular file.
var ErrNotAFile = errors.New("not a regular file")

// SourceOptions controls how a Source splits and decodes its file.
type SourceOptions struct {
	// BatchSize is the maximum rows per batch. <= 0 reads the whole file as one batch.
	BatchSize int

	// SanitizeUTF8 replaces invalid UTF-8 with U+FFFD instead of failing.
	SanitizeUTF8 bool
}

// Source produces RowBatches from a CSV file. It is not safe for concurrent use.
type Source struct {
	path    string
	file    *os.File
	counter *countingReader
	size    int64
	reader  *csv.Reader
	columns []Column
	unknown []string // TypeMap entries naming no header column
	opts    SourceOptions

	batches int   // batches returned so far
	done    bool  // underlying reader hit EOF
	err     error // terminal error, io.EOF once exhausted
}

// OpenSource opens path, reads its header and resolves column types from
// types. The caller must Close the returned Source.
func OpenSource(path string, types TypeMap, opts SourceOptions) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &FileAccessError{Path: path, Err: ErrNotAFile}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}

	in, counter := wrapInput(f, opts.SanitizeUTF8)
	r := csv.NewReader(in)
	r.LazyQuotes = true
	r.FieldsPerRecord = 0 // every row must match the header

	s := &Source{
		path:    path,
		file:    f,
		counter: counter,
		size:    info.Size(),
		reader:  r,
		opts:    opts,
	}

	header, err := s.readHeader()
	if err != nil {
		f.Close()
		return nil, err
	}

	s.columns, s.unknown = types.Resolve(header)

	return s, nil
}

func (s *Source) readHeader() ([]string, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Path: s.path, Line: 1, Reason: ReasonMissingHeader}
	}
	if err != nil {
		return nil, s.parseError(err)
	}

	header := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, cell := range record {
		if !s.opts.SanitizeUTF8 && !utf8.ValidString(cell) {
			return nil, &MalformedInputError{Path: s.path, Line: 1, Reason: ReasonInvalidEncoding}
		}
		name := strings.TrimSpace(cell)
		if name == "" {
			return nil, &MalformedInputError{Path: s.path, Line: 1, Reason: ReasonBadHeader,
				Err: fmt.Errorf("column %d has no name", i+1)}
		}
		if prev, dup := seen[name]; dup {
			return nil, &MalformedInputError{Path: s.path, Line: 1, Reason: ReasonBadHeader,
				Err: fmt.Errorf("duplicate column %q (columns %d and %d)", name, prev+1, i+1)}
		}
		seen[name] = i
		header[i] = name
	}
	return header, nil
}

// UnknownTypes returns the TypeMap entries that matched no header column,
// sorted. Those entries have no effect on the import.
func (s *Source) UnknownTypes() []string {
	return s.unknown
}

// Columns returns the typed columns read from the header.
func (s *Source) Columns() []Column {
	return s.columns
}

// Next returns the next batch, or io.EOF when the file is exhausted. After
// io.EOF or any error, every later call returns that same error.
func (s *Source) Next() (*RowBatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done || (s.opts.BatchSize <= 0 && s.batches > 0) {
		s.err = io.EOF
		return nil, s.err
	}

	batch := &RowBatch{
		Index:   s.batches + 1,
		Columns: s.columns,
	}
	if s.opts.BatchSize > 0 {
		batch.Rows = make([][]any, 0, s.opts.BatchSize)
	}

	for s.opts.BatchSize <= 0 || len(batch.Rows) < s.opts.BatchSize {
		record, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			s.err = s.parseError(err)
			return nil, s.err
		}

		line, _ := s.reader.FieldPos(0)
		row, err := s.convertRow(record, len(batch.Rows), line)
		if err != nil {
			s.err = err
			return nil, s.err
		}
		if len(batch.Rows) == 0 {
			batch.FirstLine = line
		}
		batch.Rows = append(batch.Rows, row)
	}

	// Chunked mode never yields an empty batch; single-shot always yields one.
	if len(batch.Rows) == 0 && s.opts.BatchSize > 0 {
		s.err = io.EOF
		return nil, s.err
	}

	s.batches++
	return batch, nil
}

func (s *Source) convertRow(record []string, rowIdx, line int) ([]any, error) {
	row := make([]any, len(record))
	for i, field := range record {
		if !s.opts.SanitizeUTF8 && !utf8.ValidString(field) {
			return nil, &MalformedInputError{Path: s.path, Line: line, Reason: ReasonInvalidEncoding,
				Err: fmt.Errorf("column %q", s.columns[i].Name)}
		}
		col := s.columns[i]
		v, err := col.Type.Coerce(field)
		if err != nil {
			return nil, &TypeCoercionError{
				Row:    rowIdx,
				Line:   line,
				Column: col.Name,
				Type:   col.Type,
				Value:  field,
				Err:    err,
			}
		}
		row[i] = v
	}
	return row, nil
}

func (s *Source) parseError(err error) error {
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		return &MalformedInputError{Path: s.path, Reason: ReasonParse, Err: err}
	}
	reason := ReasonParse
	if errors.Is(pe.Err, csv.ErrFieldCount) {
		reason = ReasonFieldCount
	}
	return &MalformedInputError{Path: s.path, Line: pe.Line, Reason: reason, Err: pe.Err}
}

// BytesRead returns the number of file bytes consumed so far.
func (s *Source) BytesRead() int64 {
	return s.counter.n
}

// Size returns the file size in bytes at open time.
func (s *Source) Size() int64 {
	return s.size
}

// Close releases the file. It is safe to call more than once.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
