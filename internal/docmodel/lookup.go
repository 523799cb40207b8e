package docmodel

import "strings"

// partSentinel is skipped by Metadata.
const partSentinel = "part"

// Lookup resolves a path of mapping keys, starting at the top level. Each
// level returns the first node whose key matches. Missing paths yield nil.
func (d *Document) Lookup(path ...string) *Node {
	nodes := d.nodes
	var found *Node
	for _, key := range path {
		found = nil
		for _, n := range nodes {
			if n.Key() == key {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		nodes = found.children
	}
	return found
}

// PartData returns the lines below "parts:" -> "<part>:". The result is nil
// when the part does not exist or has no body.
func (d *Document) PartData(part string) []*Node {
	parts := firstWithText(d.nodes, "parts:")
	if parts == nil {
		return nil
	}
	entry := firstWithText(parts.children, part+":")
	if entry == nil {
		return nil
	}
	return entry.children
}

// PartElement returns the first line of a part whose text starts with
// prefix, e.g. PartElement("glib", "source-tag").
func (d *Document) PartElement(part, prefix string) *Node {
	return firstWithPrefix(d.PartData(part), prefix)
}

// Metadata returns the top-level lines, skipping the literal "part" line.
func (d *Document) Metadata() []*Node {
	out := make([]*Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		if n.text == partSentinel {
			continue
		}
		out = append(out, n)
	}
	return out
}

// PartMetadata returns the first top-level line starting with prefix, e.g.
// PartMetadata("version").
func (d *Document) PartMetadata(prefix string) *Node {
	return firstWithPrefix(d.Metadata(), prefix)
}

// PartNames lists the parts below "parts:" in document order.
func (d *Document) PartNames() []string {
	parts := firstWithText(d.nodes, "parts:")
	if parts == nil {
		return nil
	}
	var names []string
	for _, n := range parts.children {
		if n.IsStructureless() || !strings.HasSuffix(n.text, ":") {
			continue
		}
		names = append(names, strings.TrimSuffix(n.text, ":"))
	}
	return names
}

// Walk visits every node in document order. Returning false stops the walk.
func (d *Document) Walk(fn func(*Node) bool) {
	walk(d.nodes, fn)
}

func walk(nodes []*Node, fn func(*Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) || !walk(n.children, fn) {
			return false
		}
	}
	return true
}

func firstWithText(nodes []*Node, text string) *Node {
	for _, n := range nodes {
		if n.text == text {
			return n
		}
	}
	return nil
}

func firstWithPrefix(nodes []*Node, prefix string) *Node {
	for _, n := range nodes {
		if strings.HasPrefix(n.text, prefix) {
			return n
		}
	}
	return nil
}
