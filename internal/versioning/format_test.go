package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

type partFixture struct {
	VersionFormat FormatSpec `yaml:"version-format"`
}

func TestFormatSpec_UnmarshalYAML(t *testing.T) {
	src := `
version-format:
  format: '%M.%m.%R'
  lower-than: '4.0'
  ignore-odd-minor: true
  no-9x-revisions: true
  no-9x-minors: true
  same-major: true
  allow-branch: true
  ignore-version: '3.2.4'
`
	var p partFixture
	require.NoError(t, yaml.Unmarshal([]byte(src), &p))

	spec := p.VersionFormat
	assert.Equal(t, "%M.%m.%R", spec.Format)
	assert.Equal(t, "4.0", spec.LowerThan)
	assert.True(t, spec.IgnoreOddMinor)
	assert.True(t, spec.No9xRevisions)
	assert.True(t, spec.No9xMinors)
	assert.True(t, spec.SameMajor)
	assert.False(t, spec.SameMinor)
	assert.True(t, spec.AllowBranch)
	assert.False(t, spec.AllowNeitherTagNorBranch)
	assert.Equal(t, IgnoreList{"3.2.4"}, spec.IgnoreVersion)
	assert.False(t, spec.Detected)
}

func TestFormatSpec_IgnoreVersionList(t *testing.T) {
	src := "version-format:\n  format: '%M.%m.%R'\n  ignore-version:\n    - 2.43.6\n    - '3.2.4'\n"
	var p partFixture
	require.NoError(t, yaml.Unmarshal([]byte(src), &p))
	assert.Equal(t, IgnoreList{"2.43.6", "3.2.4"}, p.VersionFormat.IgnoreVersion)
}

func TestFormatSpec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "not a mapping",
			src:     "version-format: '%M.%m'\n",
			message: "not a mapping",
		},
		{
			name:    "list of flags",
			src:     "version-format:\n  - ignore-odd-minor\n",
			message: "not a mapping",
		},
		{
			name:    "ignore-version mapping",
			src:     "version-format:\n  format: '%M.%m.%R'\n  ignore-version:\n    a: 1.2.3\n",
			message: "neither a string nor a list",
		},
		{
			name:    "ignore-version nested list",
			src:     "version-format:\n  format: '%M.%m.%R'\n  ignore-version:\n    - 1.2.3\n    - [3.2.4]\n",
			message: "not a string",
		},
		{
			name:    "ignore-version number",
			src:     "version-format:\n  format: '%M.%m.%R'\n  ignore-version: 3\n",
			message: "neither a string nor a list",
		},
		{
			name:    "lower-than garbage",
			src:     "version-format:\n  format: '%V'\n  lower-than: 'next'\n",
			message: "lower-than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p partFixture
			err := yaml.Unmarshal([]byte(tt.src), &p)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		tag    string
		format string
		ok     bool
	}{
		{"1.2.3", "%M.%m.%R", true},
		{"v1.2.3", "v%M.%m.%R", true},
		{"42.2", "%M.%m", true},
		{"42", "", false},
		{"v42.2", "", false},
		{"GTK_4_12_1", "", false},
		{"1.2.3-rc1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			format, ok := DetectFormat(tt.tag)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestWithDetectedFormat(t *testing.T) {
	spec := FormatSpec{SameMajor: true}.WithDetectedFormat("v2.8.1")
	assert.Equal(t, "v%M.%m.%R", spec.Format)
	assert.True(t, spec.Detected)
	assert.True(t, spec.SameMajor)

	configured := FormatSpec{Format: "%V"}.WithDetectedFormat("1.2.3")
	assert.Equal(t, "%V", configured.Format)
	assert.False(t, configured.Detected)

	unknown := FormatSpec{}.WithDetectedFormat("release-2023")
	assert.False(t, unknown.HasFormat())
}
