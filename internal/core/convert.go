package core

// convert.go provides the column types a TypeMap can declare and the
// conversion of CSV text into typed Go values.
//
// Conversions are strict about content but forgiving about presentation:
//   - surrounding whitespace is ignored for non-string types
//   - booleans accept true/false, yes/no, t/f, y/n, 1/0
//   - dates accept ISO, US, EU and a few written layouts, with 2-digit year pivot
//
// An empty field is nil (SQL NULL) for every type. Coerce is idempotent:
// passing a value it produced returns the same value.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ColumnType is the declared scalar type of a column.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
)

// typeAliases maps accepted type names (lowercase) to column types.
var typeAliases = map[string]ColumnType{
	"string": TypeString, "str": TypeString, "text": TypeString, "object": TypeString,
	"integer": TypeInteger, "int": TypeInteger, "int64": TypeInteger, "int32": TypeInteger, "bigint": TypeInteger,
	"float": TypeFloat, "float64": TypeFloat, "float32": TypeFloat, "double": TypeFloat,
	"numeric": TypeFloat, "decimal": TypeFloat,
	"boolean": TypeBoolean, "bool": TypeBoolean,
	"date": TypeDate,
	"timestamp": TypeTimestamp, "datetime": TypeTimestamp, "datetime64": TypeTimestamp,
}

// ErrUnknownType is returned by ParseColumnType for names it does not recognise.
var ErrUnknownType = errors.New("unknown column type")

// ParseColumnType resolves a type name from a TypeMap definition.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseColumnType(name string) (ColumnType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return t, nil
}

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

// Coerce converts v to the Go representation of t.
//
// v is normally the raw CSV text. Values already of the target Go type are
// returned unchanged, which makes Coerce idempotent.
func (t ColumnType) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	s, isString := v.(string)
	if isString && s == "" {
		return nil, nil
	}

	switch t {
	case TypeString, "":
		if !isString {
			return nil, fmt.Errorf("expected text, got %T", v)
		}
		return s, nil

	case TypeInteger:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case string:
			return parseInteger(n)
		}

	case TypeFloat:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		case string:
			return parseFloat(f)
		}

	case TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return parseBool(b)
		}

	case TypeDate:
		switch d := v.(type) {
		case civil.Date:
			return d, nil
		case string:
			return parseDate(d)
		}

	case TypeTimestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			return parseTimestamp(ts)
		}

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, string(t))
	}

	return nil, fmt.Errorf("expected %s, got %T", t, v)
}

func parseInteger(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer: %w", err)
	}
	return n, nil
}

func parseFloat(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %w", err)
	}
	return f, nil
}

func parseBool(s string) (any, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return nil, nil
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return nil, errors.New("invalid boolean: must be yes/no, true/false, or 1/0")
}

func parseDate(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	// 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return civil.DateOf(t), nil
		}
	}

	return nil, errors.New("invalid date format (use YYYY-MM-DD or similar)")
}

func parseTimestamp(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// A bare date is midnight UTC.
	if d, err := parseDate(s); err == nil && d != nil {
		return d.(civil.Date).In(time.UTC), nil
	}
	return nil, errors.New("invalid timestamp format (use RFC 3339 or YYYY-MM-DD HH:MM:SS)")
}
