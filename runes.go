// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

const (
	// CR and LF are control characters, respectively coded 0x0D (13 decimal) and 0x0A (10 decimal).
	// Both end keys and values, but only LF ends a comment.

	// CR is 0x0D or '\r'
	CR rune = rune(13)

	// LF is 0x0A or '\n'
	LF rune = rune(10)

	// EOF is a sentinel for end of input
	EOF rune = rune(-1)
)

func init() {
	for _, ch := range []byte{' ', '\t', '\n', '\f', '\r'} {
		spaces[ch] = true
	}
	for _, ch := range []byte{'{', '=', '\n', '\r'} {
		keyTerminators[ch] = true
	}
}

var (
	spaces         = [128]bool{}
	keyTerminators = [128]bool{}
)

// isspace reports whether ch is ASCII whitespace.
// Vertical tab is deliberately not included.
func isspace(ch rune) bool {
	return 0 <= ch && ch < 128 && spaces[ch]
}

// iskeyterminator reports whether ch ends an identifier without being part of it.
func iskeyterminator(ch rune) bool {
	return 0 <= ch && ch < 128 && keyTerminators[ch]
}

// iseol reports whether ch ends a value.
func iseol(ch rune) bool {
	return ch == LF || ch == CR
}
