// Package snapcraft decodes the parts of a snapcraft.yaml that matter for
// update checks.
//
// Decoding works on the text with "# ext:updatesnap" blocks activated, so
// version-format options hidden from snapcraft are visible here.
package snapcraft

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/updatesnap/internal/extblock"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// ExtensionName selects the comment blocks this tool reads.
const ExtensionName = "updatesnap"

// FileNames lists candidate file locations inside a project, in lookup
// order. Entries are slash separated, as used in repository paths.
var FileNames = []string{"snapcraft.yaml", "snap/snapcraft.yaml"}

// Project is the decoded view of a snapcraft.yaml.
type Project struct {
	Name      string
	Version   string
	Grade     string
	AdoptInfo string
	// Parts keeps document order.
	Parts []*Part
	// HasExtensions reports whether any "# ext:updatesnap" block was found.
	HasExtensions bool
}

// Part is one entry under "parts:".
type Part struct {
	Name       string
	Source     string
	SourceType string
	// SourceTag and SourceBranch are nil when the key is absent.
	SourceTag     *string
	SourceBranch  *string
	SourceDepth   *int
	VersionFormat versioning.FormatSpec
}

// Tag returns the pinned tag or "".
func (p *Part) Tag() string {
	if p.SourceTag == nil {
		return ""
	}
	return *p.SourceTag
}

// Branch returns the pinned branch or "".
func (p *Part) Branch() string {
	if p.SourceBranch == nil {
		return ""
	}
	return *p.SourceBranch
}

type rawProject struct {
	Name      string    `yaml:"name"`
	Version   string    `yaml:"version"`
	Grade     string    `yaml:"grade"`
	AdoptInfo string    `yaml:"adopt-info"`
	Parts     yaml.Node `yaml:"parts"`
}

type rawPart struct {
	Source        string                 `yaml:"source"`
	SourceType    string                 `yaml:"source-type"`
	SourceTag     *string                `yaml:"source-tag"`
	SourceBranch  *string                `yaml:"source-branch"`
	SourceDepth   *int                   `yaml:"source-depth"`
	VersionFormat *versioning.FormatSpec `yaml:"version-format"`
}

// Parse decodes raw snapcraft.yaml content.
func Parse(content []byte) (*Project, error) {
	text, found := extblock.Activate(string(content), ExtensionName)

	var raw rawProject
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to decode snapcraft.yaml").
			Fatal().
			Build()
	}

	project := &Project{
		Name:          raw.Name,
		Version:       raw.Version,
		Grade:         raw.Grade,
		AdoptInfo:     raw.AdoptInfo,
		HasExtensions: found,
	}
	if raw.Parts.Kind == 0 {
		return project, nil
	}
	if raw.Parts.Kind != yaml.MappingNode {
		return nil, errors.ConfigError("parts is not a mapping").
			WithContext("line", raw.Parts.Line).
			Build()
	}

	for i := 0; i+1 < len(raw.Parts.Content); i += 2 {
		name := raw.Parts.Content[i].Value
		part, err := decodePart(name, raw.Parts.Content[i+1])
		if err != nil {
			return nil, err
		}
		project.Parts = append(project.Parts, part)
	}
	return project, nil
}

func decodePart(name string, node *yaml.Node) (*Part, error) {
	part := &Part{Name: name}
	// "parts: {foo: }" is legal snapcraft for a part with no keys.
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return part, nil
	}
	var raw rawPart
	if err := node.Decode(&raw); err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("part", name)
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid part definition").
			Fatal().
			WithContext("part", name).
			Build()
	}
	part.Source = raw.Source
	part.SourceType = raw.SourceType
	part.SourceTag = raw.SourceTag
	part.SourceBranch = raw.SourceBranch
	part.SourceDepth = raw.SourceDepth
	if raw.VersionFormat != nil {
		part.VersionFormat = *raw.VersionFormat
	}
	return part, nil
}

// Part returns the named part or nil.
func (p *Project) Part(name string) *Part {
	for _, part := range p.Parts {
		if part.Name == name {
			return part
		}
	}
	return nil
}

// PartNames lists part names in document order.
func (p *Project) PartNames() []string {
	names := make([]string, 0, len(p.Parts))
	for _, part := range p.Parts {
		names = append(names, part.Name)
	}
	return names
}

// FindFile returns the snapcraft.yaml of a project folder, or path itself
// when it is a file.
func FindFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot access snapcraft project").
			WithContext("path", path).
			Build()
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range FileNames {
		candidate := filepath.Join(path, filepath.FromSlash(name))
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.NotFoundError("no snapcraft file found").
		WithContext("path", path).
		Build()
}
