// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Diagnostic is a parse error or warning tied to a position in the source.
type Diagnostic struct {
	Severity slog.Level // Error, Warning, Info
	Message  string     // "invalid character '}'"
	Pos      Position   // where in the file it occurred
	Notes    []string   // optional additional help messages
}

// NewDiagnostic converts a parse error into a Diagnostic.
// It returns false if err does not wrap a *ParseError.
func NewDiagnostic(err error) (Diagnostic, bool) {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return Diagnostic{}, false
	}
	diag := Diagnostic{
		Severity: slog.LevelError,
		Pos:      pe.Pos,
	}
	switch pe.Kind {
	case UnexpectedEOF:
		diag.Message = "unexpected end of input"
		diag.Notes = append(diag.Notes, "a key is missing its value, or a '{' was never closed")
	case InvalidCharacter:
		diag.Message = fmt.Sprintf("invalid character %q", pe.Char)
		if pe.Char == '}' {
			diag.Notes = append(diag.Notes, "'}' is not allowed inside a key")
		} else {
			diag.Notes = append(diag.Notes, "a key must be followed by '=' or '{'")
		}
	default:
		diag.Message = pe.Kind.String()
	}
	return diag, true
}

// PrintDiagnostic writes diag as
//
//	file:line:column: ERROR: message
//	    the offending line
//	    ^
//
// followed by any notes. The caret is placed by byte offset, and tabs in
// the line are copied so it lines up in a terminal.
func PrintDiagnostic(w io.Writer, diag Diagnostic, filename string, src []byte) {
	pos := diag.Pos
	_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
		filename, pos.Line, pos.Column,
		diag.Severity.String(), diag.Message)

	offset := max(0, min(pos.Offset, len(src)))
	line, start := findLine(src, offset)
	_, _ = fmt.Fprintf(w, "    %s\n", line)
	_, _ = fmt.Fprintf(w, "    %s^\n", caretPadding(src[start:offset]))

	for _, note := range diag.Notes {
		_, _ = fmt.Fprintf(w, "    note: %s\n", note)
	}
}

// findLine returns the line containing the byte at offset, without its
// line ending, and the offset where that line starts. LF, CR and CRLF
// all end a line. An offset at the end of input returns the last line.
func findLine(src []byte, offset int) ([]byte, int) {
	offset = max(0, min(offset, len(src)))

	lineStart := 0
	for i := offset - 1; i >= 0; i-- {
		if src[i] == '\n' || src[i] == '\r' {
			lineStart = i + 1
			break
		}
	}

	lineEnd := len(src)
	for i := lineStart; i < len(src); i++ {
		if src[i] == '\n' || src[i] == '\r' {
			lineEnd = i
			break
		}
	}

	return src[lineStart:lineEnd], lineStart
}

// caretPadding returns the whitespace that puts a caret after prefix,
// the part of the line before the offending character.
func caretPadding(prefix []byte) string {
	var sb strings.Builder
	for len(prefix) != 0 {
		r, w := utf8.DecodeRune(prefix)
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		prefix = prefix[w:]
	}
	return sb.String()
}
