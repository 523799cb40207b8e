package versioning

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// FormatSpec is the version-format block of a part.
type FormatSpec struct {
	// Format uses %M, %m and %R for major, minor and revision, or %V for an
	// opaque version string. Empty means no format was configured.
	Format                   string
	LowerThan                string
	IgnoreOddMinor           bool
	No9xRevisions            bool
	No9xMinors               bool
	IgnoreVersion            IgnoreList
	SameMajor                bool
	SameMinor                bool
	AllowBranch              bool
	AllowNeitherTagNorBranch bool
	// Ignore skips the part entirely.
	Ignore bool
	// Detected is set when Format was inferred from the pinned tag.
	Detected bool
}

// HasFormat reports whether a format string is configured or detected.
func (f *FormatSpec) HasFormat() bool {
	return f != nil && f.Format != ""
}

// IsGeneric reports whether the format uses the %V placeholder.
func (f *FormatSpec) IsGeneric() bool {
	return strings.Contains(f.Format, "%V")
}

// prefix is the literal text before the first placeholder.
func (f *FormatSpec) prefix() string {
	before, _, _ := strings.Cut(f.Format, "%")
	return before
}

type rawFormatSpec struct {
	Format                   string     `yaml:"format"`
	LowerThan                string     `yaml:"lower-than"`
	IgnoreOddMinor           bool       `yaml:"ignore-odd-minor"`
	No9xRevisions            bool       `yaml:"no-9x-revisions"`
	No9xMinors               bool       `yaml:"no-9x-minors"`
	IgnoreVersion            IgnoreList `yaml:"ignore-version"`
	SameMajor                bool       `yaml:"same-major"`
	SameMinor                bool       `yaml:"same-minor"`
	AllowBranch              bool       `yaml:"allow-branch"`
	AllowNeitherTagNorBranch bool       `yaml:"allow-neither-tag-nor-branch"`
	Ignore                   bool       `yaml:"ignore"`
}

// UnmarshalYAML decodes a version-format mapping. Anything other than a
// mapping is a configuration error.
func (f *FormatSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return ferrors.ConfigError("version-format data is not a mapping; options must use the form 'option-name: true'").
			WithContext("line", node.Line).
			Build()
	}
	var raw rawFormatSpec
	if err := node.Decode(&raw); err != nil {
		if ferrors.IsClassified(err) {
			return err
		}
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid version-format").
			Fatal().
			WithContext("line", node.Line).
			Build()
	}
	*f = FormatSpec{
		Format:                   raw.Format,
		LowerThan:                raw.LowerThan,
		IgnoreOddMinor:           raw.IgnoreOddMinor,
		No9xRevisions:            raw.No9xRevisions,
		No9xMinors:               raw.No9xMinors,
		IgnoreVersion:            raw.IgnoreVersion,
		SameMajor:                raw.SameMajor,
		SameMinor:                raw.SameMinor,
		AllowBranch:              raw.AllowBranch,
		AllowNeitherTagNorBranch: raw.AllowNeitherTagNorBranch,
		Ignore:                   raw.Ignore,
	}
	return f.Validate()
}

// Validate checks values that can only be judged after decoding.
func (f *FormatSpec) Validate() error {
	if f.LowerThan != "" {
		if _, ok := parseGeneric(f.LowerThan); !ok {
			return ferrors.ConfigError("lower-than is not a valid version").
				WithContext("lower-than", f.LowerThan).
				Build()
		}
	}
	for _, v := range f.IgnoreVersion {
		if _, ok := parseGeneric(v); !ok {
			return ferrors.ConfigError("ignore-version entry is not a valid version").
				WithContext("ignore-version", v).
				Build()
		}
	}
	return nil
}

// IgnoreList holds the ignore-version entries. In YAML it is either a
// single string or a list of strings.
type IgnoreList []string

// UnmarshalYAML accepts a string scalar or a sequence of string scalars.
func (l *IgnoreList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return ignoreVersionError(node, "is neither a string nor a list")
		}
		*l = IgnoreList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(IgnoreList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return ignoreVersionError(item, "contains an element that is not a string")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return ignoreVersionError(node, "is neither a string nor a list")
	}
}

func ignoreVersionError(node *yaml.Node, reason string) error {
	return ferrors.ConfigError(fmt.Sprintf("the 'ignore-version' entry %s", reason)).
		WithContext("line", node.Line).
		Build()
}

var detectors = []struct {
	pattern *regexp.Regexp
	format  string
}{
	{regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`), "%M.%m.%R"},
	{regexp.MustCompile(`^v[0-9]+\.[0-9]+\.[0-9]+$`), "v%M.%m.%R"},
	{regexp.MustCompile(`^[0-9]+\.[0-9]+$`), "%M.%m"},
}

// DetectFormat infers a format from common tag shapes.
func DetectFormat(tag string) (string, bool) {
	for _, d := range detectors {
		if d.pattern.MatchString(tag) {
			return d.format, true
		}
	}
	return "", false
}

// WithDetectedFormat returns a copy of f with Format inferred from tag when
// no format is configured.
func (f FormatSpec) WithDetectedFormat(tag string) FormatSpec {
	if f.Format != "" || tag == "" {
		return f
	}
	if format, ok := DetectFormat(tag); ok {
		f.Format = format
		f.Detected = true
	}
	return f
}
