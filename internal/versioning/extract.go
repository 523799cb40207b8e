package versioning

import (
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// Extract parses candidate with spec and applies its filters. ok is false
// when the candidate does not match the format or is excluded by a filter.
// With strict set, a missing format is reported to sink.
func Extract(spec *FormatSpec, candidate string, strict bool, sink DiagnosticSink) (Version, bool) {
	if !spec.HasFormat() {
		if strict {
			sink.emit(ferrors.SeverityCritical, "Missing tag version format")
		}
		return Version{}, false
	}
	if spec.IsGeneric() {
		return extractGeneric(spec, candidate)
	}
	return extractTriple(spec, candidate)
}

func extractGeneric(spec *FormatSpec, candidate string) (Version, bool) {
	prefix := spec.prefix()
	if !strings.HasPrefix(candidate, prefix) {
		return Version{}, false
	}
	v, ok := parseGeneric(candidate[len(prefix):])
	if !ok {
		return Version{}, false
	}
	if spec.LowerThan != "" {
		bound, ok := parseGeneric(spec.LowerThan)
		if !ok || v.Compare(bound) >= 0 {
			return Version{}, false
		}
	}
	return v, true
}

func extractTriple(spec *FormatSpec, candidate string) (Version, bool) {
	var major, minor, revision int
	rest := candidate
	// The leading space marks a first piece with no placeholder.
	for _, piece := range strings.Split(" "+spec.Format, "%") {
		if piece == "" {
			return Version{}, false
		}
		if piece[0] != ' ' {
			n, tail, ok := readNumber(rest)
			if !ok {
				return Version{}, false
			}
			rest = tail
			switch piece[0] {
			case 'M':
				major = n
			case 'm':
				minor = n
			case 'R':
				revision = n
			}
		}
		literal := piece[1:]
		if !strings.HasPrefix(rest, literal) {
			return Version{}, false
		}
		rest = rest[len(literal):]
	}

	v := NewTriple(major, minor, revision)
	for _, ignored := range spec.IgnoreVersion {
		if iv, ok := parseGeneric(ignored); ok && v.Equal(iv) {
			return Version{}, false
		}
	}
	if spec.LowerThan != "" {
		if bound, ok := parseGeneric(spec.LowerThan); !ok || v.Compare(bound) >= 0 {
			return Version{}, false
		}
	}
	if spec.IgnoreOddMinor && minor%2 == 1 {
		return Version{}, false
	}
	if spec.No9xRevisions && revision >= 90 {
		return Version{}, false
	}
	if spec.No9xMinors && minor >= 90 {
		return Version{}, false
	}
	return v, true
}

func readNumber(s string) (int, string, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}
