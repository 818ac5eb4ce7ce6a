// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"errors"
	"fmt"
)

// ErrorKind is the type of a ParseError.
type ErrorKind int

const (
	// UnexpectedEOF means a brace was left open, or the input ended
	// inside a key.
	UnexpectedEOF ErrorKind = iota + 1
	// InvalidCharacter means a character was found that is not allowed
	// where it appeared.
	InvalidCharacter
	// NestingTooDeep means nodes were nested deeper than the parser's limit.
	NestingTooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedEOF:
		return "unexpected eof"
	case InvalidCharacter:
		return "invalid character"
	case NestingTooDeep:
		return "nesting too deep"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. Every *ParseError unwraps to the one matching its Kind.
var (
	ErrUnexpectedEOF    = errors.New(UnexpectedEOF.String())
	ErrInvalidCharacter = errors.New(InvalidCharacter.String())
	ErrNestingTooDeep   = errors.New(NestingTooDeep.String())
)

// Position is a location in the input.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, character column
	Offset int // byte index into input (0-based)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError is returned by Parse when the input is malformed.
// Only Kind decides whether two errors are the same failure; the
// other fields are there for reporting.
type ParseError struct {
	Kind     ErrorKind
	Filename string   // set by WithFilename
	Pos      Position // offending character, or end of input
	Char     rune     // offending character; EOF for UnexpectedEOF
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Kind == InvalidCharacter && e.Char != EOF {
		msg = fmt.Sprintf("%s %q", msg, e.Char)
	}
	if e.Filename != "" {
		return fmt.Sprintf("%s:%s: %s", e.Filename, e.Pos, msg)
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case UnexpectedEOF:
		return ErrUnexpectedEOF
	case InvalidCharacter:
		return ErrInvalidCharacter
	case NestingTooDeep:
		return ErrNestingTooDeep
	}
	return nil
}
