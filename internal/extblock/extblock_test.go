package extblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{
			name:  "no block",
			in:    "name: x\n# plain comment\n",
			want:  "name: x\n# plain comment\n",
			found: false,
		},
		{
			name: "block keeps column",
			in: "parts:\n  gtk:\n    source-tag: '4.1'\n" +
				"# ext:updatesnap\n#   version-format:\n#     same-major: true\n# endext\n" +
				"# after\n",
			want: "parts:\n  gtk:\n    source-tag: '4.1'\n" +
				"# ext:updatesnap\n    version-format:\n      same-major: true\n# endext\n" +
				"# after\n",
			found: true,
		},
		{
			name:  "single space comments stay comments",
			in:    "# ext:updatesnap\n# note\n#  key: v\n",
			want:  "# ext:updatesnap\n# note\n   key: v\n",
			found: true,
		},
		{
			name:  "non comment line ends block",
			in:    "# ext:updatesnap\n#  a: 1\nb: 2\n#  c: 3\n",
			want:  "# ext:updatesnap\n   a: 1\nb: 2\n#  c: 3\n",
			found: true,
		},
		{
			name:  "other extension untouched",
			in:    "# ext:other\n#  a: 1\n# endext\n",
			want:  "# ext:other\n#  a: 1\n# endext\n",
			found: false,
		},
		{
			name:  "indented hash does not count as comment",
			in:    "# ext:updatesnap\n  #  a: 1\n#  b: 2\n",
			want:  "# ext:updatesnap\n  #  a: 1\n#  b: 2\n",
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Activate(tt.in, "updatesnap")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
		})
	}
}

func TestActivate_PreservesLength(t *testing.T) {
	in := "# ext:updatesnap\n#      deep: true\n# endext"
	out, found := Activate(in, "updatesnap")
	require.True(t, found)
	require.Len(t, out, len(in))
}
