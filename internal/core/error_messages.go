package core

// error_messages.go maps import errors to user-facing messages with codes.
//
// # Error Codes Reference
//
// When an import fails the CLI prints one line of the form
//
//	[ERROR] <message> (Code: XXX). <action>
//
// Codes are chosen first by error kind (errors.As on the typed errors in
// errors.go), then by case-insensitive substring match on the error text.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Type map invalid: missing file, bad syntax or unknown type name
//	CFG002 - Environment configuration invalid
//	         Patterns: "config load", "config validation"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Input file not found
//	FILE002 - Permission denied reading the input file
//	FILE003 - Input path is not a regular file
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Header missing, blank or duplicated
//	CSV002 - Row has a different number of fields than the header
//	CSV003 - Invalid UTF-8
//	CSV004 - Other parse error (quoting)
//	CSV005 - check found rows that would fail to import
//
// # Type Errors (TYPE001-TYPE099)
//
//	TYPE001 - Value does not match the column's declared type
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Row already exists
//	        Patterns: "already exists", "duplicate key", "unique constraint"
//	DB002 - Table or column not found
//	        Patterns: "not found", "does not exist", "no such table", "no such column", "has no column"
//	DB003 - Connection failed
//	        Patterns: "connection refused", "connection reset", "unavailable", "no such host"
//	DB004 - Deadline exceeded
//	        Patterns: "deadline exceeded", "timeout"
//	DB005 - Permission denied
//	        Patterns: "permission denied", "unauthenticated", "credentials"
//	DB006 - Any other failure while writing a batch
//
// # Default Errors
//
//	ERR001 - Import cancelled (context.Canceled)
//	ERR000 - Unexpected error; check the logs for the technical error

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgTypeMap = UserMessage{
		Message: "The type map file could not be used",
		Action:  "Check the file exists and maps each column to string, integer, float, boolean, date or timestamp",
		Code:    "CFG001",
	}
	msgEnvConfig = UserMessage{
		Message: "Environment configuration is invalid",
		Action:  "Check IMPORT_DRIVER, SPANNER_PROJECT and LOG_* settings",
		Code:    "CFG002",
	}
	msgFileNotFound = UserMessage{
		Message: "Input file not found",
		Action:  "Check the --file_path value",
		Code:    "FILE001",
	}
	msgFilePermission = UserMessage{
		Message: "Permission denied reading the input file",
		Action:  "Check the file permissions",
		Code:    "FILE002",
	}
	msgNotAFile = UserMessage{
		Message: "Input path is not a file",
		Action:  "Point --file_path at a CSV file, not a directory",
		Code:    "FILE003",
	}
	msgHeader = UserMessage{
		Message: "The CSV header is missing or invalid",
		Action:  "Make sure the first row names every column exactly once",
		Code:    "CSV001",
	}
	msgFieldCount = UserMessage{
		Message: "A row has a different number of fields than the header",
		Action:  "Check the reported line for missing or extra commas",
		Code:    "CSV002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8 or set IMPORT_SANITIZE_UTF8=true",
		Code:    "CSV003",
	}
	msgParse = UserMessage{
		Message: "The file is not valid CSV",
		Action:  "Check quoting around the reported line",
		Code:    "CSV004",
	}
	msgInvalidRows = UserMessage{
		Message: "Some rows would fail to import",
		Action:  "Fix the rows listed above and run check again",
		Code:    "CSV005",
	}
	msgCoercion = UserMessage{
		Message: "A value does not match its column type",
		Action:  "Fix the value or change the column's type in the type map",
		Code:    "TYPE001",
	}
	msgWriteFailed = UserMessage{
		Message: "The database rejected a batch",
		Action:  "Earlier batches were committed. Fix the data and import the remaining rows",
		Code:    "DB006",
	}
	msgConnectFailed = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check the instance and database IDs and try again",
		Code:    "DB003",
	}
	msgCancelled = UserMessage{
		Message: "Import was cancelled",
		Action:  "Earlier batches were committed. Import the remaining rows when ready",
		Code:    "ERR001",
	}
	msgDuplicate = UserMessage{
		Message: "A row with this key already exists",
		Action:  "Remove rows that were already imported",
		Code:    "DB001",
	}
	msgNotFound = UserMessage{
		Message: "Table or column not found",
		Action:  "Check --table_id and the CSV header against the schema",
		Code:    "DB002",
	}
	msgTimeout = UserMessage{
		Message: "Database operation timed out",
		Action:  "Try a smaller --chunksize or try again later",
		Code:    "DB004",
	}
	msgPermission = UserMessage{
		Message: "Permission denied by the database",
		Action:  "Check the credentials have write access",
		Code:    "DB005",
	}
)

// databasePatterns refine database errors. The first match wins, so more
// specific patterns come first.
var databasePatterns = []errorPattern{
	{"already exists", msgDuplicate},
	{"duplicate key", msgDuplicate},
	{"unique constraint", msgDuplicate},
	{"permission denied", msgPermission},
	{"unauthenticated", msgPermission},
	{"credentials", msgPermission},
	{"deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"no such table", msgNotFound},
	{"no such column", msgNotFound},
	{"has no column", msgNotFound},
	{"does not exist", msgNotFound},
	{"not found", msgNotFound},
	{"connection refused", msgConnectFailed},
	{"connection reset", msgConnectFailed},
	{"no such host", msgConnectFailed},
	{"unavailable", msgConnectFailed},
}

// configPatterns match errors from environment configuration loading.
var configPatterns = []string{"config load", "config validation"}

// defaultMessage is returned when no specific classification applies.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		cfgErr       *ConfigError
		accessErr    *FileAccessError
		malformedErr *MalformedInputError
		coerceErr    *TypeCoercionError
		connErr      *ConnectError
		writeErr     *WriteError
	)

	switch {
	case errors.As(err, &cfgErr):
		return msgTypeMap

	case errors.As(err, &accessErr):
		switch {
		case errors.Is(err, os.ErrNotExist):
			return msgFileNotFound
		case errors.Is(err, os.ErrPermission):
			return msgFilePermission
		case errors.Is(err, ErrNotAFile):
			return msgNotAFile
		}
		return msgFileNotFound

	case errors.As(err, &malformedErr):
		switch malformedErr.Reason {
		case ReasonMissingHeader, ReasonBadHeader:
			return msgHeader
		case ReasonFieldCount:
			return msgFieldCount
		case ReasonInvalidEncoding:
			return msgEncoding
		case ReasonInvalidRows:
			return msgInvalidRows
		}
		return msgParse

	case errors.As(err, &coerceErr):
		return msgCoercion

	case errors.As(err, &connErr):
		if msg, ok := matchDatabase(err); ok && msg != msgDuplicate && msg != msgNotFound {
			return msg
		}
		return msgConnectFailed

	case errors.As(err, &writeErr):
		if errors.Is(err, context.Canceled) {
			return msgCancelled
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return msgTimeout
		}
		if msg, ok := matchDatabase(err); ok {
			return msg
		}
		return msgWriteFailed

	case errors.Is(err, context.Canceled):
		return msgCancelled
	}

	lower := strings.ToLower(err.Error())
	for _, p := range configPatterns {
		if strings.Contains(lower, p) {
			return msgEnvConfig
		}
	}
	return defaultMessage
}

func matchDatabase(err error) (UserMessage, bool) {
	lower := strings.ToLower(err.Error())
	for _, p := range databasePatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "A value does not match its column type (Code: TYPE001). Fix the value or change the column's type in the type map"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
