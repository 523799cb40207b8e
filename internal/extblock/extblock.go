// Package extblock activates tool-private blocks hidden in YAML comments.
//
// A block starts with a column-0 line "# ext:<name>" and ends with
// "# endext" or the first line that is not a column-0 comment:
//
//	    source-tag: '3.42.1'
//	# ext:updatesnap
//	#   version-format:
//	#     ignore-odd-minor: true
//	# endext
//
// Inside a block, comments written as "#  ..." (two or more spaces after the
// hash) have the hash replaced by a space so the content keeps its column.
// Other comments are left alone, as are the marker lines themselves.
package extblock

import "strings"

const endMarker = "# endext"

// Marker returns the opening line of the block for name.
func Marker(name string) string {
	return "# ext:" + name
}

// Activate returns text with every block for name activated and reports
// whether at least one block was found.
func Activate(text, name string) (string, bool) {
	lines := strings.Split(text, "\n")
	start := Marker(name)
	active := false
	found := false
	for i, line := range lines {
		if !strings.HasPrefix(line, "#") {
			active = false
			continue
		}
		switch {
		case line == start:
			active = true
			found = true
		case line == endMarker:
			active = false
		case active && strings.HasPrefix(line, "#  "):
			lines[i] = " " + line[1:]
		}
	}
	return strings.Join(lines, "\n"), found
}
