// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package loader

import (
	"errors"
	"fmt"

	"github.com/mdhender/confignode"
)

// ErrReadFile is returned when a file can't be read.
type ErrReadFile struct {
	Path string
	Err  error
}

func (e *ErrReadFile) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ErrReadFile) Unwrap() error {
	return e.Err
}

// ErrParseSyntax is returned when a file is not valid ConfigNode text.
// Source holds the file contents so callers can print a diagnostic.
type ErrParseSyntax struct {
	Path   string
	Source []byte
	Err    *confignode.ParseError
}

func (e *ErrParseSyntax) Error() string {
	return fmt.Sprintf("parse syntax error: %v", e.Err)
}

func (e *ErrParseSyntax) Unwrap() error {
	return e.Err
}

// Error code constants for reporting.
const (
	ErrCodeReadFile    = "READ_FILE"
	ErrCodeParseSyntax = "PARSE_SYNTAX_ERROR"
	ErrCodeUnknown     = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	var readErr *ErrReadFile
	var syntaxErr *ErrParseSyntax
	switch {
	case errors.As(err, &readErr):
		return ErrCodeReadFile
	case errors.As(err, &syntaxErr):
		return ErrCodeParseSyntax
	default:
		return ErrCodeUnknown
	}
}
