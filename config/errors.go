package config

import (
	"fmt"
	"strings"
)

// ParseError means the file could not be read or is not well-formed YAML for a Config.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "config"
	}
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, e.Line)
	}
	return fmt.Sprintf("%s: %s", where, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists every constraint the decoded Config violates.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	where := e.Path
	if where == "" {
		where = "config"
	}
	return fmt.Sprintf("%s: invalid configuration: %s", where, strings.Join(e.Problems, "; "))
}
