package main

import (
	"errors"

	"github.com/JonMunkholm/csvimport/internal/core"
)

// Process exit codes.
const (
	exitOK       = 0
	exitInternal = 1
	exitUsage    = 2
	exitConfig   = 3
	exitInput    = 4
	exitDB       = 5
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor picks the exit code for an error returned by a command.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var (
		cfgErr       *core.ConfigError
		accessErr    *core.FileAccessError
		malformedErr *core.MalformedInputError
		coerceErr    *core.TypeCoercionError
		connErr      *core.ConnectError
		writeErr     *core.WriteError
	)
	switch {
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &accessErr), errors.As(err, &malformedErr), errors.As(err, &coerceErr):
		return exitInput
	case errors.As(err, &connErr), errors.As(err, &writeErr):
		return exitDB
	}
	return exitInternal
}
