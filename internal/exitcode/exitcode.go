// Package exitcode maps errors to process exit codes. The bundler
// distinguishes build failures (code 1) from problems with the
// invocation itself, such as an unreadable config file (code 2).
package exitcode

import "errors"

// Coder is an error that carries its own exit code.
type Coder interface {
	error
	ExitCode() int
}

// Get returns the exit code for err: 0 for nil, the carried code for a
// Coder anywhere in the chain, and 1 for all other errors.
func Get(err error) int {
	if err == nil {
		return 0
	}
	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Set tags an error with an exit code without changing its message.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coded{err, code}
}

var _ Coder = coded{}

type coded struct {
	error
	code int
}

func (c coded) ExitCode() int {
	return c.code
}

func (c coded) Unwrap() error {
	return c.error
}
