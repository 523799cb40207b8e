package versioning

import (
	"slices"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// RankTags returns the pinned tag record and the tags that are newer than
// it, most recently dated first.
//
// Newer is judged by version when the pinned tag parses with spec and by
// date otherwise. Presentation order is always by date, so a late hotfix
// on an old series can be listed before a newer series.
func RankTags(current string, tags []Reference, spec *FormatSpec, sink DiagnosticSink) (Reference, []Reference, error) {
	idx := slices.IndexFunc(tags, func(r Reference) bool { return r.Name == current })
	if idx < 0 {
		return Reference{}, nil, ErrCurrentTagMissing.WithContext("tag", current)
	}
	pinned := tags[idx]

	currentVersion, byVersion := Extract(spec, current, true, sink)
	curMajor, curMinor, _, curTriple := currentVersion.Triple()

	var newer []Reference
	for _, tag := range tags {
		if tag.Name == current {
			continue
		}
		if !byVersion {
			if tag.When().Before(pinned.When()) {
				continue
			}
			newer = append(newer, tag)
			continue
		}
		v, ok := Extract(spec, tag.Name, false, nil)
		if !ok || v.Compare(currentVersion) <= 0 {
			continue
		}
		if major, minor, _, ok := v.Triple(); ok && curTriple {
			if spec.SameMajor && major != curMajor {
				continue
			}
			if spec.SameMinor && minor != curMinor {
				continue
			}
		}
		newer = append(newer, tag)
	}
	SortByDate(newer)
	return pinned, newer, nil
}

// RankBranches returns the branches dated strictly after the pinned branch,
// most recent first. Unknown dates count as the Unix epoch, so a pinned
// branch missing from the list makes every dated branch newer.
func RankBranches(current string, branches []Reference) []Reference {
	pinnedDate := epoch
	if idx := slices.IndexFunc(branches, func(r Reference) bool { return r.Name == current }); idx >= 0 {
		pinnedDate = branches[idx].When()
	}
	var newer []Reference
	for _, b := range branches {
		if b.Name == current {
			continue
		}
		if b.When().After(pinnedDate) {
			newer = append(newer, b)
		}
	}
	SortByDate(newer)
	return newer
}

// SortByDate sorts refs newest first, keeping listing order for equal dates.
func SortByDate(refs []Reference) {
	slices.SortStableFunc(refs, func(a, b Reference) int {
		return b.When().Compare(a.When())
	})
}

// Latest returns up to n references, newest first, without modifying refs.
func Latest(refs []Reference, n int) []Reference {
	out := slices.Clone(refs)
	SortByDate(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// IsCurrentTagMissing reports whether err is ErrCurrentTagMissing.
func IsCurrentTagMissing(err error) bool {
	c, ok := ferrors.AsClassified(err)
	return ok && c.Is(ErrCurrentTagMissing)
}
