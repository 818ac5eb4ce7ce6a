// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"unicode/utf8"
)

// Scanner invariants and coordinate system
//
// The scanner treats input as an immutable string. Line endings are NOT
// normalized: CR and LF mean different things to the grammar, so the
// scanner reports them exactly as they appear.
//
// Fields:
//   input       - the original text
//   length      - len(input)
//
//   r           - the current rune, or EOF when we have read past the end.
//
//   posCurrRune - index into input of the first byte of r,
//                 or length when r == EOF.
//   posNextRune - index into input of the first byte of the *next* rune,
//                 or length when r == EOF.
//
// Invariants (must always hold):
//   0 <= posCurrRune <= posNextRune <= length
//
//   r == EOF  <=> posCurrRune == posNextRune == length
//
//   r != EOF  => posCurrRune < length && posNextRune > posCurrRune
//                and input[posCurrRune:posNextRune] encodes r
//                (an invalid byte is reported as utf8.RuneError with width 1).
//
// `advance`:
//
//   - On entry, (r, posCurrRune, posNextRune) describe the current rune.
//   - On exit they describe the next rune, or EOF.
//   - `advance` also updates line/col, counting LF as a line break.
//   - `advance` at EOF is a no-op.
//
// Anchors and text spans:
//
//   - Callers that collect text call setAnchor() while r is the first rune
//     of the text, advance over it, then slice input[anchor:posCurrRune].
//     Slicing (instead of appending runes) keeps invalid UTF-8 bytes intact.

type scanner struct {
	r           rune // current rune
	line        int  // line number of current rune
	column      int  // column number of current rune
	posCurrRune int  // position of current rune
	posNextRune int  // position of next rune
	length      int  // length of input buffer
	input       string

	anchorPos int
}

func newScanner(input string) *scanner {
	s := &scanner{
		input:  input,
		length: len(input),
		line:   1,
		column: 1,
	}
	// read the first character to initialize the scanner.
	s.load()
	return s
}

// peekChar returns the current character without advancing the input.
func (s *scanner) peekChar() rune {
	return s.r
}

// advance moves to the next rune and updates line/col.
// Once r is EOF, advance does nothing.
func (s *scanner) advance() {
	if s.iseof() {
		return
	}

	// update line/col wrt the *current* rune before stepping
	if s.r == LF {
		s.line++
		s.column = 1
	} else {
		s.column++
	}

	s.posCurrRune = s.posNextRune
	s.load()
}

// load reads the rune starting at posCurrRune.
// At end of input, it sets r == EOF and both positions to length.
func (s *scanner) load() {
	if s.posCurrRune >= s.length {
		s.posCurrRune, s.posNextRune = s.length, s.length
		s.r = EOF
		return
	}

	// read the rune, optimizing for ASCII grammars.
	r, w := rune(s.input[s.posCurrRune]), 1
	if r >= utf8.RuneSelf {
		// the current rune must be decoded
		r, w = utf8.DecodeRuneInString(s.input[s.posCurrRune:])
	}
	s.posNextRune = s.posCurrRune + w
	s.r = r
}

func (s *scanner) iseof() bool {
	return s.r == EOF
}

// setAnchor marks the start of the current text span.
func (s *scanner) setAnchor() {
	s.anchorPos = s.posCurrRune
}

// textFromAnchor returns the input from the anchor up to, but not including, end.
func (s *scanner) textFromAnchor(end int) string {
	return s.input[s.anchorPos:end]
}

// pos returns the position of the current rune.
func (s *scanner) pos() Position {
	return Position{
		Line:   s.line,
		Column: s.column,
		Offset: s.posCurrRune,
	}
}

// skipSpaces consumes a run of ASCII whitespace, including line endings.
func (s *scanner) skipSpaces() {
	for isspace(s.r) {
		s.advance()
	}
}

// skipLine consumes everything up to, but not including, the next LF.
func (s *scanner) skipLine() {
	for !s.iseof() && s.r != LF {
		s.advance()
	}
}
