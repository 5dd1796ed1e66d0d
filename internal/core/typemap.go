package core

// typemap.go loads the optional column -> type definition for an import.
//
// The file format is chosen by extension:
//
//	.yaml .yml  YAML mapping
//	.toml       top-level TOML keys
//	.hcl        top-level HCL attributes
//	anything else is read as a JSON object
//
// Every value must be a type name accepted by ParseColumnType. Keys are
// trimmed the same way header names are.
//
// JSON and YAML keep the last value of a repeated key. TOML and HCL reject
// repeated keys as part of their syntax.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/pelletier/go-toml"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"gopkg.in/yaml.v2"
)

// TypeMap maps column names to their declared types. Columns not in the map
// are strings. A TypeMap is read-only once loaded.
type TypeMap map[string]ColumnType

// TypeOf returns the declared type of column, defaulting to TypeString.
// Surrounding whitespace in column and in the map's keys is ignored.
func (m TypeMap) TypeOf(column string) ColumnType {
	if t, ok := m[column]; ok {
		return t
	}
	column = strings.TrimSpace(column)
	for name, t := range m {
		if strings.TrimSpace(name) == column {
			return t
		}
	}
	return TypeString
}

// Resolve returns the typed columns for a header, plus the TypeMap entries
// that name no column in it, sorted. Header names are expected trimmed.
func (m TypeMap) Resolve(header []string) (cols []Column, unknown []string) {
	seen := make(map[string]struct{}, len(header))
	cols = make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: name, Type: m.TypeOf(name)}
		seen[name] = struct{}{}
	}
	for name := range m {
		if _, ok := seen[strings.TrimSpace(name)]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return cols, unknown
}

// TypeMap definition formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatHCL  = "hcl"
)

// FormatForPath returns the definition format implied by a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

// ErrNotAMapping is wrapped by ConfigError when a definition file holds no
// mapping at all, such as a JSON null or an empty YAML document.
var ErrNotAMapping = errors.New("type map must be a mapping of column to type")

// LoadTypeMap reads a TypeMap definition. An empty path yields an empty map
// without touching the filesystem. All failures are *ConfigError.
func LoadTypeMap(path string) (TypeMap, error) {
	if path == "" {
		return TypeMap{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var raw map[string]any
	switch FormatForPath(path) {
	case FormatYAML:
		raw, err = decodeYAML(data)
	case FormatTOML:
		raw, err = decodeTOML(data)
	case FormatHCL:
		raw, err = decodeHCL(data, path)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	// A null or empty JSON/YAML document decodes to a nil map.
	if raw == nil {
		return nil, &ConfigError{Path: path, Err: ErrNotAMapping}
	}

	types := make(TypeMap, len(raw))
	for key, v := range raw {
		column := strings.TrimSpace(key)
		if column == "" {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("column %q: name is blank", key)}
		}
		if _, dup := types[column]; dup {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("column %q is listed more than once", column)}
		}
		name, err := scalarString(v)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("column %q: %w", column, err)}
		}
		t, err := ParseColumnType(name)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("column %q: %w", column, err)}
		}
		types[column] = t
	}

	slog.Debug("type map loaded", "path", path, "columns", len(types))
	return types, nil
}

func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", errors.New("type name is empty")
	case map[string]any, map[any]any, []any, *toml.Tree, []*toml.Tree:
		return "", fmt.Errorf("type name must be a scalar, got %T", v)
	default:
		return fmt.Sprint(v), nil
	}
}

func decodeYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return tree.ToMap(), nil
}

func decodeHCL(data []byte, filename string) (map[string]any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}

	raw := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.New(diags.Error())
		}
		if val.IsNull() || !val.Type().IsPrimitiveType() {
			return nil, fmt.Errorf("attribute %q: type name must be a scalar", name)
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		raw[name] = str.AsString()
	}
	return raw, nil
}

// MarshalTypeMap renders a TypeMap definition for the given columns in the
// given format. Column order is preserved where the format allows it.
func MarshalTypeMap(cols []Column, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		buf.WriteString("{\n")
		for i, c := range cols {
			key, err := json.Marshal(c.Name)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "  %s: %q", key, string(c.Type))
			if i < len(cols)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("}\n")
		return buf.Bytes(), nil

	case FormatYAML:
		doc := make(yaml.MapSlice, len(cols))
		for i, c := range cols {
			doc[i] = yaml.MapItem{Key: c.Name, Value: string(c.Type)}
		}
		return yaml.Marshal(doc)

	case FormatTOML:
		m := make(map[string]any, len(cols))
		for _, c := range cols {
			m[c.Name] = string(c.Type)
		}
		tree, err := toml.TreeFromMap(m)
		if err != nil {
			return nil, err
		}
		return tree.Marshal()

	case FormatHCL:
		f := hclwrite.NewEmptyFile()
		body := f.Body()
		for _, c := range cols {
			if !hclsyntax.ValidIdentifier(c.Name) {
				return nil, fmt.Errorf("column %q is not a valid HCL attribute name", c.Name)
			}
			body.SetAttributeValue(c.Name, cty.StringVal(string(c.Type)))
		}
		return f.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported type map format %q", format)
}
