package core

// errors.go defines the error kinds an import run can fail with.
//
// None of these are recovered inside the package. Each wraps its cause so
// callers can use errors.Is on the underlying error (os.ErrNotExist,
// context.DeadlineExceeded, driver errors) and errors.As on the kind.

import (
	"fmt"
	"strings"
)

// ConfigError reports a missing, unreadable or invalid TypeMap definition.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("type map %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileAccessError reports an input file that does not exist or cannot be opened.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("open input %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Reasons carried by MalformedInputError.
const (
	ReasonMissingHeader   = "missing header"
	ReasonBadHeader       = "invalid header"
	ReasonFieldCount      = "wrong number of fields"
	ReasonInvalidEncoding = "invalid UTF-8 encoding"
	ReasonParse           = "parse error"
	ReasonInvalidRows     = "rows would fail to import"
)

// MalformedInputError reports a structural problem with the CSV input.
// Line is 1-based; 0 means the line is unknown.
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed input ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// TypeCoercionError reports a value that does not match its column's declared type.
type TypeCoercionError struct {
	Row    int // 0-based index within the batch
	Line   int // 1-based line in the file
	Column string
	Type   ColumnType
	Value  string
	Err    error
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("row %d (line %d) column %q: cannot convert %q to %s: %v",
		e.Row, e.Line, e.Column, e.Value, e.Type, e.Err)
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

// ConnectError reports that no database handle could be obtained.
type ConnectError struct {
	Instance string
	Database string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s/%s: %v", e.Instance, e.Database, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError reports a batch the database rejected. Err is the database
// error verbatim.
type WriteError struct {
	Table string
	Batch int
	Rows  int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("insert %d rows into %s: %v", e.Rows, e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
