package docmodel

import (
	"fmt"
	"strings"
)

type parser struct {
	lines     []string
	pos       int
	separator byte
}

// block consumes lines indented exactly level wide, recursing into deeper
// runs. It returns when a line narrower than level appears.
func (p *parser) block(level, depth int) ([]*Node, error) {
	var (
		nodes  []*Node
		anchor *Node
	)
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		indent := leadingWhitespace(line)
		text := line[len(indent):]

		if isStructureless(text) {
			n := &Node{indent: indent, text: text, depth: depth + 1, line: p.pos + 1}
			if anchor == nil {
				// Only the top level can start with a comment or blank line.
				n.depth = depth
				nodes = append(nodes, n)
			} else {
				anchor.children = append(anchor.children, n)
			}
			p.pos++
			continue
		}

		if indent != "" && p.separator == 0 {
			p.separator = indent[0]
		}
		if strings.Trim(indent, string(p.separator)) != "" {
			return nil, &ParseError{Line: p.pos + 1, Kind: ErrMixedIndent, Text: line}
		}

		width := len(indent)
		switch {
		case width < level:
			return nodes, nil
		case width == level:
			anchor = &Node{indent: indent, text: text, depth: depth, line: p.pos + 1}
			nodes = append(nodes, anchor)
			p.pos++
		default:
			if anchor == nil {
				return nil, &ParseError{Line: p.pos + 1, Kind: ErrOrphanIndent, Text: line}
			}
			children, err := p.block(width, depth+1)
			if err != nil {
				return nil, err
			}
			anchor.children = append(anchor.children, children...)
		}
	}
	return nodes, nil
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func isStructureless(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// ParseErrorKind classifies structural parse failures.
type ParseErrorKind string

const (
	// ErrMixedIndent marks a content line whose indentation mixes the
	// document's indentation character with another whitespace character.
	ErrMixedIndent ParseErrorKind = "mixed indentation"
	// ErrOrphanIndent marks an indented content line with no preceding
	// line to nest under.
	ErrOrphanIndent ParseErrorKind = "indented line without parent"
)

// ParseError reports an irrecoverable structural inconsistency.
type ParseError struct {
	Line int
	Kind ParseErrorKind
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Kind, e.Text)
}
