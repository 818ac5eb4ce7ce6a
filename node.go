// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Node is a vertex in the parsed tree. It maps identifiers to values.
//
// A Node is only created by the parser and is read-only afterwards.
// Identifiers are unique within a node; when the input repeats one,
// the last occurrence wins. The order of the children carries no meaning,
// so accessors that list them return keys in sorted order.
type Node struct {
	children map[string]Value
}

// Value is either raw text or a nested node.
//
// Text is never interpreted: numbers, lists and booleans stay exactly as
// they were written (minus surrounding whitespace).
//
// The zero Value is neither: AsText and AsNode both report false.
type Value struct {
	kind valueKind
	text string
	node *Node
}

type valueKind uint8

const (
	noValue valueKind = iota
	textKind
	nodeKind
)

func newNode() *Node {
	return &Node{children: map[string]Value{}}
}

func textValue(s string) Value {
	return Value{kind: textKind, text: s}
}

func nodeValue(n *Node) Value {
	return Value{kind: nodeKind, node: n}
}

// set inserts or overwrites the value for key.
func (n *Node) set(key string, v Value) {
	n.children[key] = v
}

// AsText returns the text if v is a text value.
func (v Value) AsText() (string, bool) {
	if v.kind != textKind {
		return "", false
	}
	return v.text, true
}

// AsNode returns the nested node if v is a node value.
func (v Value) AsNode() (*Node, bool) {
	if v.kind != nodeKind {
		return nil, false
	}
	return v.node, true
}

// IsNode reports whether v holds a nested node.
func (v Value) IsNode() bool {
	return v.kind == nodeKind
}

// String returns the text of a text value, or a debug dump of a node value.
func (v Value) String() string {
	if v.node != nil {
		return v.node.String()
	}
	return v.text
}

// MarshalJSON encodes text as a JSON string and a node as a JSON object.
// The zero Value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case nodeKind:
		return v.node.MarshalJSON()
	case textKind:
		return json.Marshal(v.text)
	}
	return []byte("null"), nil
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	v, ok := n.children[key]
	return v, ok
}

// Text returns the text stored under key.
// It returns false if the key is missing or holds a node.
func (n *Node) Text(key string) (string, bool) {
	v, ok := n.Get(key)
	if !ok {
		return "", false
	}
	return v.AsText()
}

// Child returns the node stored under key.
// It returns false if the key is missing or holds text.
func (n *Node) Child(key string) (*Node, bool) {
	v, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsNode()
}

// Keys returns the identifiers of the direct children in sorted order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.children))
	for key := range n.children {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Lookup follows path from n through nested nodes.
// An empty path returns n itself.
//
//	title, ok := root.Lookup("GAME", "Title")
func (n *Node) Lookup(path ...string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	v := nodeValue(n)
	for _, key := range path {
		parent, ok := v.AsNode()
		if !ok {
			return Value{}, false
		}
		if v, ok = parent.Get(key); !ok {
			return Value{}, false
		}
	}
	return v, true
}

// WalkFunc is called by Walk for every value in the tree.
// path holds the identifiers from the walk root down to and including the value's own key;
// the slice is owned by the callback.
type WalkFunc func(path []string, v Value) error

// Walk visits every value below n, depth first, children in sorted key order.
// A node value is visited before its own children.
// Walk stops at the first error returned by fn and returns it.
func (n *Node) Walk(fn WalkFunc) error {
	return n.walk(nil, fn)
}

func (n *Node) walk(prefix []string, fn WalkFunc) error {
	for _, key := range n.Keys() {
		v := n.children[key]
		path := append(slices.Clip(prefix), key)
		if err := fn(slices.Clone(path), v); err != nil {
			return err
		}
		if child, ok := v.AsNode(); ok {
			if err := child.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarshalJSON encodes the node as a JSON object with sorted keys.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil || len(n.children) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(n.children)
}

// String returns hierarchy representation of the Node, mainly
// for debugging.
func (n *Node) String() string {
	var buffer bytes.Buffer
	dumpNode(n, &buffer, 0)
	return buffer.String()
}

func dumpNode(node *Node, buffer *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, key := range node.Keys() {
		v := node.children[key]
		if child, ok := v.AsNode(); ok {
			buffer.WriteString(fmt.Sprintf("%s%s: # node\n", indent, key))
			dumpNode(child, buffer, depth+1)
			continue
		}
		buffer.WriteString(fmt.Sprintf("%s%s: %s # text\n", indent, key, v.text))
	}
}
