// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"fmt"
	"log/slog"
	"strings"
)

/*
Invariants:
 * The scanner is private to the parser. All parsing code reads it through
   peekChar() (lookahead, never consumes) and advance() (consume).

 * Node bodies
   * The root and every nested node share one body loop. The loop skips
     whitespace, then stops at '}' or end of input.
   * At the root, both simply end the parse successfully. A stray '}'
     therefore truncates the tree rather than failing.
   * In a nested node the body must be followed by '}'; end of input is
     UnexpectedEOF.

 * Nesting uses an explicit stack of frames instead of Go recursion.
   stack[0] is the root; a frame is pushed after '{' is consumed and popped
   after the matching '}' is consumed. The stack depth is checked against
   maxDepth before each push.

 * A nested node is attached to its parent only when it is closed, so no
   caller ever sees a partially built child. On any error the whole tree
   is dropped.

 * Slashes
   * "//" starts a comment wherever a key or value may continue; the comment
     runs up to, but not including, the next LF.
   * A single '/' is an ordinary character.
   * A key that starts with a literal '/' is "/" + the trimmed rest of the
     key, so spaces after a leading slash are dropped.
*/

type frame struct {
	key  string // identifier in the parent; empty for the root
	node *Node
	open Position // position of the '{' that opened the node
}

type parser struct {
	s        *scanner
	filename string
	maxDepth int
	logger   *slog.Logger
	stack    []*frame
}

// Parse parses ConfigNode text into a tree.
// It returns the root node, or the first error found in the input.
func Parse(text string, opts ...Option) (*Node, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	p := &parser{
		s:        newScanner(text),
		filename: cfg.filename,
		maxDepth: cfg.maxDepth,
		logger:   cfg.logger,
	}
	return p.parse()
}

// ParseBytes is Parse for input that is already in a byte slice.
func ParseBytes(data []byte, opts ...Option) (*Node, error) {
	return Parse(string(data), opts...)
}

func (p *parser) parse() (*Node, error) {
	root := newNode()
	p.stack = []*frame{{node: root}}

	for {
		p.s.skipSpaces()

		switch p.s.peekChar() {
		case '}', EOF:
			if len(p.stack) == 1 {
				p.debug("end of root: %d entries", root.Len())
				return root, nil
			}
			if err := p.closeNode(); err != nil {
				return nil, err
			}
			continue
		}

		key, ok, err := p.parseKey()
		if err != nil {
			return nil, err
		} else if !ok {
			// comment line, nothing to add
			continue
		}

		p.s.skipSpaces()

		switch p.s.peekChar() {
		case '{':
			if err := p.openNode(key); err != nil {
				return nil, err
			}
		case '=':
			p.s.advance()
			p.top().node.set(key, textValue(p.parseString()))
		case EOF:
			return nil, p.errorf(UnexpectedEOF)
		default:
			return nil, p.errorf(InvalidCharacter)
		}
	}
}

func (p *parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

// openNode consumes '{' and pushes a frame for key.
func (p *parser) openNode(key string) error {
	if p.maxDepth > 0 && len(p.stack) > p.maxDepth {
		return p.errorf(NestingTooDeep)
	}
	open := p.s.pos()
	p.s.advance()
	p.stack = append(p.stack, &frame{key: key, node: newNode(), open: open})
	p.debug("open %q: depth %d", key, len(p.stack)-1)
	return nil
}

// closeNode consumes the '}' that ends the current node and attaches
// the node to its parent.
func (p *parser) closeNode() error {
	p.s.skipSpaces()

	switch p.s.peekChar() {
	case '}':
		p.s.advance()
	case EOF:
		p.debug("unclosed %q opened at %s", p.top().key, p.top().open)
		return p.errorf(UnexpectedEOF)
	default:
		return p.errorf(InvalidCharacter)
	}

	child := p.top()
	p.stack[len(p.stack)-1] = nil
	p.stack = p.stack[:len(p.stack)-1]
	p.top().node.set(child.key, nodeValue(child.node))
	p.debug("close %q: %d entries", child.key, child.node.Len())
	return nil
}

// parseKey reads the identifier of the next entry.
// It returns false, without an error, if the entry turned out to be a comment.
func (p *parser) parseKey() (string, bool, error) {
	if p.s.peekChar() != '/' {
		key, err := p.parseIdentifier()
		if err != nil {
			return "", false, err
		}
		return key, true, nil
	}

	p.s.advance()
	if p.s.peekChar() == '/' {
		p.s.skipLine()
		return "", false, nil
	}

	key, err := p.parseIdentifier()
	if err != nil {
		return "", false, err
	}
	return "/" + key, true, nil
}

// parseIdentifier reads up to '{', '=', or a line ending, none of which
// are consumed. A "//" comment also ends the identifier.
func (p *parser) parseIdentifier() (string, error) {
	p.s.setAnchor()
	end := -1
	for end < 0 {
		switch ch := p.s.peekChar(); {
		case ch == EOF:
			return "", p.errorf(UnexpectedEOF)
		case ch == '}':
			return "", p.errorf(InvalidCharacter)
		case iskeyterminator(ch):
			end = p.s.posCurrRune
		case ch == '/':
			slash := p.s.posCurrRune
			p.s.advance()
			if p.s.peekChar() == '/' {
				p.s.skipLine()
				end = slash
			}
		default:
			p.s.advance()
		}
	}
	return strings.TrimSpace(p.s.textFromAnchor(end)), nil
}

// parseString reads a value up to a line ending or end of input.
// A "//" comment also ends the value.
func (p *parser) parseString() string {
	p.s.setAnchor()
	end := -1
	for end < 0 {
		switch ch := p.s.peekChar(); {
		case ch == EOF, iseol(ch):
			end = p.s.posCurrRune
		case ch == '/':
			slash := p.s.posCurrRune
			p.s.advance()
			if p.s.peekChar() == '/' {
				p.s.skipLine()
				end = slash
			}
		default:
			p.s.advance()
		}
	}
	return strings.TrimSpace(p.s.textFromAnchor(end))
}

// errorf returns an error of the given kind at the current character.
func (p *parser) errorf(kind ErrorKind) error {
	return &ParseError{
		Kind:     kind,
		Filename: p.filename,
		Pos:      p.s.pos(),
		Char:     p.s.peekChar(),
	}
}

func (p *parser) debug(format string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(fmt.Sprintf("%s:%d:%d %s", p.filename, p.s.line, p.s.column, fmt.Sprintf(format, args...)))
}
