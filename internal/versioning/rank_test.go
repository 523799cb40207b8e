package versioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

func TestRankTags_DetectedFormat(t *testing.T) {
	spec := FormatSpec{}.WithDetectedFormat("42.2")
	require.Equal(t, "%M.%m", spec.Format)

	pinned, newer, err := RankTags("42.2", calculatorTags(), &spec, nil)
	require.NoError(t, err)
	assert.Equal(t, "42.2", pinned.Name)
	assert.Equal(t, []string{"44.0", "43.0.1", "43.0"}, names(newer))
}

func TestRankTags_SameMajor(t *testing.T) {
	spec := FormatSpec{Format: "%M.%m", SameMajor: true}
	_, newer, err := RankTags("42.1", calculatorTags(), &spec, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"42.2"}, names(newer))
}

func TestRankTags_SameMinor(t *testing.T) {
	spec := FormatSpec{Format: "%M.%m.%R", SameMinor: true}
	tags := []Reference{
		{Name: "1.4.0", Date: at(2023, 1, 1, 0, 0, 0, 0)},
		{Name: "1.3.2", Date: at(2022, 12, 1, 0, 0, 0, 0)},
		{Name: "1.3.1", Date: at(2022, 11, 1, 0, 0, 0, 0)},
	}
	_, newer, err := RankTags("1.3.1", tags, &spec, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.3.2"}, names(newer))
}

func TestRankTags_GenericPrereleasesAreNotNewer(t *testing.T) {
	spec := FormatSpec{Format: "%V"}

	_, newer, err := RankTags("44.0", calculatorTags(), &spec, nil)
	require.NoError(t, err)
	assert.Empty(t, newer)

	tags := []Reference{
		{Name: "2.0.0b2", Date: at(2023, 3, 1, 0, 0, 0, 0)},
		{Name: "2.0.0rc1", Date: at(2023, 2, 1, 0, 0, 0, 0)},
		{Name: "2.0.0", Date: at(2023, 1, 1, 0, 0, 0, 0)},
	}
	_, newer, err = RankTags("2.0.0", tags, &spec, nil)
	require.NoError(t, err)
	assert.Empty(t, newer)

	_, newer, err = RankTags("43.0.1", calculatorTags(), &spec, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"44.0", "44.rc", "44.beta"}, names(newer))
}

func TestRankTags_PresentationByDate(t *testing.T) {
	spec := FormatSpec{Format: "%M.%m.%R"}
	tags := []Reference{
		{Name: "2.0.0", Date: at(2023, 1, 1, 0, 0, 0, 0)},
		{Name: "1.9.9", Date: at(2023, 2, 1, 0, 0, 0, 0)},
		{Name: "1.9.0", Date: at(2022, 1, 1, 0, 0, 0, 0)},
	}
	_, newer, err := RankTags("1.9.0", tags, &spec, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.9.9", "2.0.0"}, names(newer))
}

func TestRankTags_DateModeWithoutFormat(t *testing.T) {
	var diags []Diagnostic
	sink := func(d Diagnostic) { diags = append(diags, d) }

	tags := []Reference{
		{Name: "release-c", Date: at(2023, 3, 1, 0, 0, 0, 0)},
		{Name: "release-b", Date: at(2023, 2, 1, 0, 0, 0, 0)},
		{Name: "release-a", Date: at(2023, 1, 1, 0, 0, 0, 0)},
	}
	spec := FormatSpec{}
	_, newer, err := RankTags("release-b", tags, &spec, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"release-c"}, names(newer))
	require.Len(t, diags, 1)
	assert.Equal(t, "Missing tag version format", diags[0].Message)
}

func TestRankTags_CurrentMissing(t *testing.T) {
	spec := FormatSpec{Format: "%M.%m"}
	_, newer, err := RankTags("45.0", calculatorTags(), &spec, nil)
	require.Error(t, err)
	assert.Empty(t, newer)
	assert.True(t, IsCurrentTagMissing(err))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPart))

	c, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	tag, _ := c.Context().GetString("tag")
	assert.Equal(t, "45.0", tag)
}

func TestRankBranches(t *testing.T) {
	branches := []Reference{
		{Name: "main", Type: ReferenceBranch, Date: at(2023, 5, 1, 0, 0, 0, 0)},
		{Name: "gnome-44", Type: ReferenceBranch, Date: at(2023, 4, 1, 0, 0, 0, 0)},
		{Name: "gnome-43", Type: ReferenceBranch, Date: at(2022, 10, 1, 0, 0, 0, 0)},
		{Name: "stale", Type: ReferenceBranch},
	}

	assert.Equal(t, []string{"main", "gnome-44"}, names(RankBranches("gnome-43", branches)))
	assert.Empty(t, RankBranches("main", branches))
	assert.Equal(t, []string{"main", "gnome-44", "gnome-43"}, names(RankBranches("missing", branches)))
}

func TestLatest(t *testing.T) {
	refs := calculatorTags()
	latest := Latest(refs[5:], 4)
	assert.Equal(t, []string{"43.rc", "43.alpha", "42.2", "42.1"}, names(latest))
	assert.Len(t, refs, 19)
	assert.Equal(t, "44.0", refs[0].Name)
}

func TestReference_When(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), Reference{}.When())
	d := at(2023, 1, 1, 0, 0, 0, 2)
	assert.Equal(t, d, Reference{Date: d}.When())
}
