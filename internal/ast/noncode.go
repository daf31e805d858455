package ast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidStatementIndex is returned when a serialized non-code map key is
// not a non-negative integer.
var ErrInvalidStatementIndex = errors.New("invalid statement index")

// CommentStyle is the delimiter a comment was written with.
type CommentStyle string

const (
	StyleLine  CommentStyle = "line"
	StyleBlock CommentStyle = "block"
)

func (s CommentStyle) digestTag() []byte {
	if s == StyleBlock {
		return []byte("/*")
	}
	return []byte("//")
}

// NonCodeKind enumerates the five kinds of non-code material.
type NonCodeKind string

const (
	NonCodeShebang             NonCodeKind = "shebang"
	NonCodeInlineComment       NonCodeKind = "inlineComment"
	NonCodeBlockComment        NonCodeKind = "blockComment"
	NonCodeNewLineBlockComment NonCodeKind = "newLineBlockComment"
	NonCodeNewLine             NonCodeKind = "newLine"
)

// NonCodeValue is the payload of a NonCodeNode. Value and Style are unused
// for NonCodeNewLine; Style is unused for NonCodeShebang.
type NonCodeValue struct {
	Kind  NonCodeKind  `json:"type"`
	Value string       `json:"value,omitempty"`
	Style CommentStyle `json:"style,omitempty"`
}

// NonCodeNode is a comment, shebang or blank line.
type NonCodeNode struct {
	Base
	Value NonCodeValue `json:"value"`
}

func (n *NonCodeNode) Contains(pos int) bool { return n.Range().Contains(pos) }

// Text returns the stored text of the node.
func (n *NonCodeNode) Text() string {
	if n.Value.Kind == NonCodeNewLine {
		return "\n\n"
	}
	return n.Value.Value
}

// Format renders the node back to source at the given indentation.
func (n *NonCodeNode) Format(indentation string) string {
	v := n.Value
	switch v.Kind {
	case NonCodeShebang:
		return v.Value + "\n\n"
	case NonCodeInlineComment:
		if v.Style == StyleBlock {
			return fmt.Sprintf(" /* %s */", v.Value)
		}
		return fmt.Sprintf(" // %s\n", v.Value)
	case NonCodeBlockComment:
		if v.Style == StyleBlock {
			return fmt.Sprintf("%s/* %s */", indentation, v.Value)
		}
		return lineComment(indentation, v.Value)
	case NonCodeNewLineBlockComment:
		lead := "\n\n"
		if n.Start == 0 {
			lead = ""
		}
		if v.Style == StyleBlock {
			return fmt.Sprintf("%s%s/* %s */\n", lead, indentation, v.Value)
		}
		return lead + lineComment(indentation, v.Value)
	case NonCodeNewLine:
		return "\n\n"
	}
	return ""
}

func lineComment(indentation, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return indentation + "//\n"
	}
	return fmt.Sprintf("%s// %s\n", indentation, value)
}

// NonCodeMeta buckets non-code nodes by the index of the statement they
// precede. Start holds material before the first statement; the key
// len(body) holds material after the last one.
type NonCodeMeta struct {
	NonCodeNodes map[int][]*NonCodeNode `json:"nonCodeNodes"`
	Start        []*NonCodeNode         `json:"start"`
	Digest       *Digest                `json:"digest,omitempty"`
}

// Insert appends n to the bucket for statement index i.
func (m *NonCodeMeta) Insert(i int, n *NonCodeNode) {
	if m.NonCodeNodes == nil {
		m.NonCodeNodes = make(map[int][]*NonCodeNode)
	}
	m.NonCodeNodes[i] = append(m.NonCodeNodes[i], n)
}

func (m *NonCodeMeta) IsEmpty() bool {
	return len(m.NonCodeNodes) == 0 && len(m.Start) == 0
}

// Len returns the number of nodes outside the Start bucket.
func (m *NonCodeMeta) Len() int {
	n := 0
	for _, nodes := range m.NonCodeNodes {
		n += len(nodes)
	}
	return n
}

// Contains reports whether any node in the meta covers pos.
func (m *NonCodeMeta) Contains(pos int) bool {
	return m.NodeAt(pos) != nil
}

// NodeAt returns the first node covering pos, checking Start first and then
// buckets in ascending index order.
func (m *NonCodeMeta) NodeAt(pos int) *NonCodeNode {
	for _, n := range m.Start {
		if n.Contains(pos) {
			return n
		}
	}
	for _, k := range m.Keys() {
		for _, n := range m.NonCodeNodes[k] {
			if n.Contains(pos) {
				return n
			}
		}
	}
	return nil
}

// Keys returns the bucket indexes in ascending order.
func (m *NonCodeMeta) Keys() []int {
	keys := make([]int, 0, len(m.NonCodeNodes))
	for k := range m.NonCodeNodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (m NonCodeMeta) MarshalJSON() ([]byte, error) {
	out := struct {
		NonCodeNodes map[string][]*NonCodeNode `json:"nonCodeNodes"`
		Start        []*NonCodeNode            `json:"start"`
		Digest       *Digest                   `json:"digest,omitempty"`
	}{
		NonCodeNodes: make(map[string][]*NonCodeNode, len(m.NonCodeNodes)),
		Start:        m.Start,
		Digest:       m.Digest,
	}
	if out.Start == nil {
		out.Start = []*NonCodeNode{}
	}
	for k, v := range m.NonCodeNodes {
		out.NonCodeNodes[strconv.Itoa(k)] = v
	}
	return json.Marshal(out)
}

func (m *NonCodeMeta) UnmarshalJSON(data []byte) error {
	var aux struct {
		NonCodeNodes map[string][]*NonCodeNode `json:"nonCodeNodes"`
		Start        []*NonCodeNode            `json:"start"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("non-code meta: %w", err)
	}
	nodes := make(map[int][]*NonCodeNode, len(aux.NonCodeNodes))
	for k, v := range aux.NonCodeNodes {
		i, err := strconv.ParseUint(k, 10, 31)
		if err != nil {
			return fmt.Errorf("non-code meta key %q: %w", k, ErrInvalidStatementIndex)
		}
		nodes[int(i)] = v
	}
	m.NonCodeNodes = nodes
	m.Start = aux.Start
	m.Digest = nil
	return nil
}
