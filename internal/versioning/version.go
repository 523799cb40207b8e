package versioning

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"
)

// Kind tells which parser produced a Version.
type Kind int

const (
	// KindTriple comes from a %M/%m/%R template.
	KindTriple Kind = iota
	// KindPEP440 is a %V value accepted by the PEP 440 parser. Pre-releases
	// such as "44.rc" or "2.0.0b2" sort below their final release.
	KindPEP440
	// KindDebian is a %V value only the Debian version parser accepted.
	KindDebian
)

func (k Kind) String() string {
	switch k {
	case KindTriple:
		return "triple"
	case KindPEP440:
		return "pep440"
	default:
		return "debian"
	}
}

// Version is a parsed, totally ordered version value.
type Version struct {
	kind     Kind
	text     string
	major    int
	minor    int
	revision int
	pep      pep440.Version
	deb      debversion.Version
}

// NewTriple builds a triple version.
func NewTriple(major, minor, revision int) Version {
	return Version{
		kind:     KindTriple,
		text:     fmt.Sprintf("%d.%d.%d", major, minor, revision),
		major:    major,
		minor:    minor,
		revision: revision,
	}
}

// Kind returns the parser that produced v.
func (v Version) Kind() Kind { return v.kind }

// String returns the version text that was parsed.
func (v Version) String() string { return v.text }

// releasePattern captures the first three release numbers of a PEP 440
// version, after an optional "v" and epoch.
var releasePattern = regexp.MustCompile(`(?i)^v?(?:[0-9]+!)?([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// Triple returns major, minor and revision. Missing release components of
// a PEP 440 version count as 0. ok is false for Debian-only versions.
func (v Version) Triple() (major, minor, revision int, ok bool) {
	switch v.kind {
	case KindTriple:
		return v.major, v.minor, v.revision, true
	case KindPEP440:
		m := releasePattern.FindStringSubmatch(v.text)
		if m == nil {
			return 0, 0, 0, false
		}
		var out [3]int
		for i, n := range m[1:] {
			if n == "" {
				continue
			}
			val, err := strconv.Atoi(n)
			if err != nil {
				return 0, 0, 0, false
			}
			out[i] = val
		}
		return out[0], out[1], out[2], true
	default:
		return 0, 0, 0, false
	}
}

// Compare returns -1, 0 or +1. Triples compare numerically, PEP 440
// versions with PEP 440 precedence, and anything involving a Debian-only
// version with Debian ordering.
func (v Version) Compare(o Version) int {
	switch {
	case v.kind == KindTriple && o.kind == KindTriple:
		if c := cmp.Compare(v.major, o.major); c != 0 {
			return c
		}
		if c := cmp.Compare(v.minor, o.minor); c != 0 {
			return c
		}
		return cmp.Compare(v.revision, o.revision)
	case v.kind != KindDebian && o.kind != KindDebian:
		a, aok := v.pep440()
		b, bok := o.pep440()
		if aok && bok {
			return a.Compare(b)
		}
	}
	a, aok := v.debian()
	b, bok := o.debian()
	if aok && bok {
		return a.Compare(b)
	}
	return strings.Compare(v.text, o.text)
}

// Equal reports whether v and o have the same precedence.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func (v Version) pep440() (pep440.Version, bool) {
	if v.kind == KindPEP440 {
		return v.pep, true
	}
	p, err := pep440.Parse(v.text)
	if err != nil {
		return pep440.Version{}, false
	}
	return p, true
}

func (v Version) debian() (debversion.Version, bool) {
	if v.kind == KindDebian {
		return v.deb, true
	}
	d, err := debversion.NewVersion(v.text)
	if err != nil {
		return debversion.Version{}, false
	}
	return d, true
}

// parseGeneric parses an opaque version string, trying PEP 440 first and
// Debian version syntax second.
func parseGeneric(text string) (Version, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Version{}, false
	}
	if p, err := pep440.Parse(text); err == nil {
		return Version{kind: KindPEP440, text: text, pep: p}, true
	}
	d, err := debversion.NewVersion(text)
	if err != nil {
		return Version{}, false
	}
	return Version{kind: KindDebian, text: text, deb: d}, true
}

// ParseVersion parses a free-form version string the same way %V formats do.
func ParseVersion(text string) (Version, bool) {
	return parseGeneric(text)
}
