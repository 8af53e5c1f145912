// Package xmltree decodes legacy XML responses into loosely typed trees and
// normalizes the object-or-array ambiguity those trees carry.
//
// Decoding follows the collapsing rules the legacy service was built around:
// a leaf element becomes its trimmed text, an element with children becomes a
// Node keyed by child name, and a child name seen more than once becomes a
// []any in document order. A collection with a single entry is therefore
// indistinguishable from a bare object until it passes through Normalize.
package xmltree

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
	"golang.org/x/net/html/charset"
)

func init() {
	mxj.XmlCharsetReader = charset.NewReaderLabel
}

// Node is an element with children.
type Node = map[string]any

// TextKey holds character data of an element that also has children or
// attributes.
const TextKey = "#text"

// Parse decodes r and returns a Node holding the single root element. Leaf
// values are kept as trimmed strings; nothing is cast.
func Parse(r io.Reader) (Node, error) {
	m, err := mxj.NewMapXmlReader(r)
	if errors.Is(err, io.EOF) {
		return nil, errors.New("decode xml: no root element")
	}
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	if len(m) == 0 {
		return nil, errors.New("decode xml: no root element")
	}
	return Node(m), nil
}

// Normalize turns an absent, single or repeated value into a slice.
// Arrays are returned as-is.
func Normalize(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{t}
	}
}

// Path walks nested nodes by child name. Any missing step yields nil.
func Path(v any, keys ...string) any {
	current := v
	for _, key := range keys {
		node, ok := current.(Node)
		if !ok {
			return nil
		}
		current = node[key]
	}
	return current
}

// Text returns the character data of a leaf or of a node's TextKey.
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case Node:
		if s, ok := t[TextKey].(string); ok {
			return s
		}
	}
	return ""
}

// Int parses the text of v as a base-10 integer.
func Int(v any) (int64, bool) {
	raw := strings.TrimSpace(Text(v))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
