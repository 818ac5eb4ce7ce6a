// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// kv describes an expected tree: values are either string (text) or kv (node).
type kv map[string]any

func build(m kv) *Node {
	n := newNode()
	for key, v := range m {
		switch v := v.(type) {
		case string:
			n.set(key, textValue(v))
		case kv:
			n.set(key, nodeValue(build(v)))
		default:
			panic("build: unsupported value type")
		}
	}
	return n
}

var treeOpts = cmp.AllowUnexported(Node{}, Value{})

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		id    string
		input string
		want  kv
	}{
		{id: "empty", input: "", want: kv{}},
		{id: "spaces", input: "   ", want: kv{}},
		{id: "ascii whitespace", input: "\n\t\r\n \f", want: kv{}},
		{id: "comment only", input: "// nothing here", want: kv{}},
		{
			id:    "leading comment",
			input: "\n            // test\n            ABC = DEF",
			want:  kv{"ABC": "DEF"},
		},
		{
			id:    "inline comment in value",
			input: "\n            ABC = DE//F",
			want:  kv{"ABC": "DE"},
		},
		{
			id:    "single slashes are literal",
			input: "A/B/C =/ DE/F//G",
			want:  kv{"A/B/C": "/ DE/F"},
		},
		{
			id:    "comment after node name",
			input: "GAME//test\n            {\n                Title = Career (CAREER)\n            }",
			want:  kv{"GAME": kv{"Title": "Career (CAREER)"}},
		},
		{
			id:    "special characters",
			input: "!!@(#@/\n            {\n                +-\\() = \\=/-$(!)\n            }",
			want:  kv{"!!@(#@/": kv{"+-\\()": "\\=/-$(!)"}},
		},
		{
			id:    "duplicate text keys",
			input: "A = 1\nA = 2",
			want:  kv{"A": "2"},
		},
		{
			id:    "node replaces text",
			input: "A = 1\nA\n{\nB = 2\n}",
			want:  kv{"A": kv{"B": "2"}},
		},
		{
			id:    "text replaces node",
			input: "A\n{\nB = 1\n}\nA = x",
			want:  kv{"A": "x"},
		},
		{
			id:    "duplicates inside nested node",
			input: "N\n{\nK = 1\nK = 2\n}",
			want:  kv{"N": kv{"K": "2"}},
		},
		{
			id:    "nested nodes",
			input: "A\n{\n\tB\n\t{\n\t\tC = d\n\t}\n\tE = f\n}\nG = h\n",
			want:  kv{"A": kv{"B": kv{"C": "d"}, "E": "f"}, "G": "h"},
		},
		{
			id:    "empty nested node",
			input: "A {}",
			want:  kv{"A": kv{}},
		},
		{
			id:    "brace on same line",
			input: "PART {\nname = fuelTank\n}",
			want:  kv{"PART": kv{"name": "fuelTank"}},
		},
		{
			id:    "root close brace ends parse",
			input: "A = 1\n}\nB = 2",
			want:  kv{"A": "1"},
		},
		{
			id:    "leading slash key drops following spaces",
			input: "/ a = b",
			want:  kv{"/a": "b"},
		},
		{
			id:    "leading slash key",
			input: "/x/y = z",
			want:  kv{"/x/y": "z"},
		},
		{
			id:    "comment then slash key",
			input: "//x\n/y = z",
			want:  kv{"/y": "z"},
		},
		{
			id:    "CR ends values",
			input: "A = b\rC = d",
			want:  kv{"A": "b", "C": "d"},
		},
		{
			id:    "CR line endings",
			input: "A\r{\rB = c\r}\r",
			want:  kv{"A": kv{"B": "c"}},
		},
		{
			id:    "CRLF line endings",
			input: "A\r\n{\r\n\tB = c\r\n}\r\n",
			want:  kv{"A": kv{"B": "c"}},
		},
		{
			id:    "comment runs to LF only",
			input: "A = b // c\rD = e\nF = g",
			want:  kv{"A": "b", "F": "g"},
		},
		{
			id:    "empty value at end of input",
			input: "A =",
			want:  kv{"A": ""},
		},
		{
			id:    "empty value before newline",
			input: "A =   \nB = c",
			want:  kv{"A": "", "B": "c"},
		},
		{
			id:    "braces and equals inside value",
			input: "A = {x} = y",
			want:  kv{"A": "{x} = y"},
		},
		{
			id:    "key with inner spaces",
			input: "  Two Words  = v  ",
			want:  kv{"Two Words": "v"},
		},
		{
			id:    "empty key",
			input: "= x",
			want:  kv{"": "x"},
		},
		{
			id:    "unicode",
			input: "Näme = wört ✓",
			want:  kv{"Näme": "wört ✓"},
		},
		{
			id:    "comment between key and brace",
			input: "GAME // c\n{\n}",
			want:  kv{"GAME": kv{}},
		},
		{
			id:    "comment in key before equals",
			input: "A // c\n= 5",
			want:  kv{"A": "5"},
		},
		{
			id:    "list values stay text",
			input: "pos = 1.5, -2, 3E+4\nflag = True",
			want:  kv{"pos": "1.5, -2, 3E+4", "flag": "True"},
		},
	} {
		t.Run(tc.id, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q): error %v", tc.input, err)
			}
			if diff := cmp.Diff(build(tc.want), got, treeOpts); diff != "" {
				t.Errorf("Parse(%q): mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, tc := range []struct {
		id    string
		input string
		kind  ErrorKind
		pos   Position
	}{
		{id: "unterminated node", input: "A\n{\nB = 1\n", kind: UnexpectedEOF, pos: Position{Line: 4, Column: 1, Offset: 10}},
		{id: "open brace at end", input: "A {", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 4, Offset: 3}},
		{id: "unterminated inner node", input: "A\n{\nB\n{\n}\n", kind: UnexpectedEOF, pos: Position{Line: 6, Column: 1, Offset: 10}},
		{id: "key at end of input", input: "ABC", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 4, Offset: 3}},
		{id: "key and spaces at end of input", input: "ABC  ", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 6, Offset: 5}},
		{id: "key then newline at end of input", input: "ABC\n", kind: UnexpectedEOF, pos: Position{Line: 2, Column: 1, Offset: 4}},
		{id: "key with comment at end of input", input: "ABC // x", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 9, Offset: 8}},
		{id: "lone slash", input: "/", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 2, Offset: 1}},
		{id: "vertical tab is not whitespace", input: "\v", kind: UnexpectedEOF, pos: Position{Line: 1, Column: 2, Offset: 1}},
		{id: "close brace in key", input: "AB}C = 1", kind: InvalidCharacter, pos: Position{Line: 1, Column: 3, Offset: 2}},
		{id: "columns count runes", input: "é}", kind: InvalidCharacter, pos: Position{Line: 1, Column: 2, Offset: 2}},
		{id: "close brace in nested key", input: "A\n{\n  B }\n}", kind: InvalidCharacter, pos: Position{Line: 3, Column: 5, Offset: 8}},
		{id: "key followed by key", input: "ABC\nDEF = 1", kind: InvalidCharacter, pos: Position{Line: 2, Column: 1, Offset: 4}},
		{id: "key followed by text after CR", input: "ABC\rx", kind: InvalidCharacter, pos: Position{Line: 1, Column: 5, Offset: 4}},
		{id: "error after good entries", input: "A = 1\nB\n{\nC = 2\n}\nD\nE", kind: InvalidCharacter, pos: Position{Line: 7, Column: 1, Offset: 20}},
	} {
		t.Run(tc.id, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q): got %v, want error", tc.input, got)
			}
			if got != nil {
				t.Errorf("Parse(%q): got tree %v, want nil", tc.input, got)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q): got %T, want *ParseError", tc.input, err)
			}
			if pe.Kind != tc.kind {
				t.Errorf("Parse(%q): kind: got %v, want %v", tc.input, pe.Kind, tc.kind)
			}
			if pe.Pos != tc.pos {
				t.Errorf("Parse(%q): pos: got %+v, want %+v", tc.input, pe.Pos, tc.pos)
			}
		})
	}
}

func TestParse_ErrorsIs(t *testing.T) {
	_, err := Parse("A\n{\n")
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("got %v, want ErrUnexpectedEOF", err)
	}
	if errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("got %v, must not match ErrInvalidCharacter", err)
	}

	_, err = Parse("A}")
	if !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("got %v, want ErrInvalidCharacter", err)
	}
}

func TestParseError_Error(t *testing.T) {
	for _, tc := range []struct {
		id    string
		input string
		opts  []Option
		want  string
	}{
		{id: "invalid character", input: "AB}C = 1", want: `1:3: invalid character '}'`},
		{id: "with filename", input: "AB}C = 1", opts: []Option{WithFilename("persistent.sfs")}, want: `persistent.sfs:1:3: invalid character '}'`},
		{id: "unexpected eof", input: "A\n{", want: `2:2: unexpected eof`},
	} {
		t.Run(tc.id, func(t *testing.T) {
			_, err := Parse(tc.input, tc.opts...)
			if err == nil {
				t.Fatalf("Parse(%q): want error", tc.input)
			}
			if got := err.Error(); got != tc.want {
				t.Errorf("Error(): got %q, want %q", got, tc.want)
			}
		})
	}
}

func nested(depth int) string {
	return strings.Repeat("N\n{\n", depth) + "K = v\n" + strings.Repeat("}\n", depth)
}

func TestParse_MaxDepth(t *testing.T) {
	if _, err := Parse(nested(3), WithMaxDepth(3)); err != nil {
		t.Fatalf("depth 3, limit 3: got %v, want nil", err)
	}

	_, err := Parse(nested(4), WithMaxDepth(3))
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("depth 4, limit 3: got %v, want ErrNestingTooDeep", err)
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		// the fourth '{' is on line 8
		if got, want := pe.Pos.Line, 8; got != want {
			t.Errorf("depth 4, limit 3: line: got %d, want %d", got, want)
		}
	}

	if _, err := Parse(nested(DefaultMaxDepth)); err != nil {
		t.Errorf("default limit, depth %d: got %v, want nil", DefaultMaxDepth, err)
	}
	if _, err := Parse(nested(DefaultMaxDepth + 1)); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("default limit, depth %d: got %v, want ErrNestingTooDeep", DefaultMaxDepth+1, err)
	}

	root, err := Parse(nested(10_000), WithMaxDepth(0))
	if err != nil {
		t.Fatalf("no limit: got %v, want nil", err)
	}
	path := make([]string, 10_000)
	for i := range path {
		path[i] = "N"
	}
	v, ok := root.Lookup(append(path, "K")...)
	if !ok {
		t.Fatalf("no limit: innermost key not found")
	}
	if got, _ := v.AsText(); got != "v" {
		t.Errorf("no limit: got %q, want %q", got, "v")
	}
}

func TestParse_BadOption(t *testing.T) {
	_, err := Parse("A = 1", WithMaxDepth(-1))
	if err == nil {
		t.Fatal("WithMaxDepth(-1): want error")
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Errorf("WithMaxDepth(-1): got *ParseError %v, want option error", err)
	}
}

func TestParseBytes(t *testing.T) {
	root, err := ParseBytes([]byte("A = \xff\xfe\n"))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	// invalid UTF-8 is kept byte for byte
	if got, _ := root.Text("A"); got != "\xff\xfe" {
		t.Errorf("got %q, want %q", got, "\xff\xfe")
	}
}
