// Package docmodel parses snapcraft-style YAML into a lossless tree of lines.
//
// Every input line is kept with its leading whitespace verbatim, so a
// document that is parsed and written back without edits reproduces its
// input. Callers look nodes up by key, assign a replacement line, and
// serialize; untouched lines stay byte-identical.
package docmodel

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/extblock"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// Options controls parsing behavior.
type Options struct {
	// Extension, when set, activates "# ext:<Extension>" blocks before the
	// tree is built. The resulting tree serializes with those blocks active.
	Extension string
}

// Node is one line of the document.
type Node struct {
	indent   string
	text     string
	children []*Node
	depth    int
	line     int
}

// Indent returns the exact leading whitespace of the line.
func (n *Node) Indent() string { return n.indent }

// Text returns the line content without leading whitespace.
func (n *Node) Text() string { return n.text }

// SetText replaces the line content. The indentation is kept. No
// validation is done; text is written verbatim on serialization.
func (n *Node) SetText(text string) { n.text = text }

// Children returns the nested lines. A nil result means the node has no
// nested block at all.
func (n *Node) Children() []*Node { return n.children }

// HasChildren reports whether a nested block follows this line.
func (n *Node) HasChildren() bool { return n.children != nil }

// Depth is the structural nesting depth. Blank and comment lines carry the
// depth of the block they are attached to, one more than their anchor.
func (n *Node) Depth() int { return n.depth }

// Line is the 1-based line number in the parsed input.
func (n *Node) Line() int { return n.line }

// IsStructureless reports whether the node is a blank or comment line.
func (n *Node) IsStructureless() bool {
	return isStructureless(n.text)
}

// Key returns the mapping key of a "key: value" or "key:" line, or "" for
// lines that are not mapping entries.
func (n *Node) Key() string {
	if n.IsStructureless() {
		return ""
	}
	key, _, found := strings.Cut(n.text, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(key)
}

// Value returns the raw text after "key:", trimmed. Quotes are kept.
func (n *Node) Value() string {
	if n.Key() == "" {
		return ""
	}
	_, value, _ := strings.Cut(n.text, ":")
	return strings.TrimSpace(value)
}

// SetValue rewrites a mapping line as "key: value", keeping the key and
// indentation. It is a no-op on lines without a key.
func (n *Node) SetValue(value string) {
	key := n.Key()
	if key == "" {
		return
	}
	n.text = key + ": " + value
}

// Document is a parsed line tree. It owns every Node; nodes handed out by
// lookups alias into the document and edits are visible on serialization.
type Document struct {
	nodes     []*Node
	separator byte
}

// Parse parses raw text into a Document.
func Parse(content []byte, opts Options) (*Document, error) {
	text := string(content)
	if opts.Extension != "" {
		text, _ = extblock.Activate(text, opts.Extension)
	}
	text = strings.TrimSuffix(text, "\n")

	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	p := &parser{lines: lines}
	nodes, err := p.block(0, 0)
	if err != nil {
		return nil, err
	}
	return &Document{nodes: nodes, separator: p.separator}, nil
}

// ParseFile reads a file from disk and parses it.
func ParseFile(path string, opts Options) (*Document, error) {
	// #nosec G304 -- path comes from the command line.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			WithContext("path", path).
			Build()
	}
	doc, err := Parse(content, opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse document").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return doc, nil
}

// Nodes returns the top-level nodes.
func (d *Document) Nodes() []*Node { return d.nodes }

// Separator returns the indentation character detected in the document,
// or 0 when no line is indented.
func (d *Document) Separator() byte { return d.separator }

// Bytes serializes the document. Trailing newlines are collapsed into
// exactly one; an empty document yields no bytes.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

func (d *Document) String() string {
	var b strings.Builder
	writeNodes(&b, d.nodes)
	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func writeNodes(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		b.WriteString(n.indent)
		b.WriteString(n.text)
		b.WriteByte('\n')
		writeNodes(b, n.children)
	}
}
