package main

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/JonMunkholm/csvimport/internal/core"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"explicit code", withCode(exitUsage, errors.New("bad flag")), exitUsage},
		{"explicit code wins", withCode(exitConfig, &core.WriteError{Table: "t", Err: errors.New("x")}), exitConfig},
		{"type map", &core.ConfigError{Path: "types.json", Err: errors.New("bad")}, exitConfig},
		{"missing file", &core.FileAccessError{Path: "x.csv", Err: fs.ErrNotExist}, exitInput},
		{"malformed", &core.MalformedInputError{Path: "x.csv", Line: 3, Reason: core.ReasonFieldCount}, exitInput},
		{"coercion", fmt.Errorf("batch 2: %w", &core.TypeCoercionError{Column: "age", Type: core.TypeInteger, Value: "x"}), exitInput},
		{"connect", &core.ConnectError{Instance: "i", Database: "d", Err: errors.New("refused")}, exitDB},
		{"write", fmt.Errorf("batch 1: %w", &core.WriteError{Table: "t", Batch: 1, Err: errors.New("x")}), exitDB},
		{"unknown", errors.New("boom"), exitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithCode_Nil(t *testing.T) {
	if err := withCode(exitDB, nil); err != nil {
		t.Errorf("withCode(nil) = %v, want nil", err)
	}
}

func TestExitError_Unwrap(t *testing.T) {
	inner := &core.ConfigError{Path: "p", Err: errors.New("x")}
	err := withCode(exitConfig, inner)

	var cfgErr *core.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatal("errors.As did not find the wrapped ConfigError")
	}
	if err.Error() != inner.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), inner.Error())
	}
}
