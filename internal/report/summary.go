package report

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// FormatDate renders a reference date, or "unknown date".
func FormatDate(r versioning.Reference) string {
	if r.Date.IsZero() {
		return "unknown date"
	}
	return r.Date.Format("2006-01-02 15:04:05 -0700")
}

// WriteSummary prints which parts need attention and which have updates.
// Parts are separated by a blank line.
func WriteSummary(w io.Writer, results []*checker.PartResult) {
	printed := false
	for _, r := range results {
		if r == nil {
			continue
		}
		if printed {
			fmt.Fprintln(w)
			printed = false
		}
		if r.MissingFormat {
			fmt.Fprintf(w, "%s: needs version format definition.\n", r.Name)
			printed = true
		}
		if r.UseBranch {
			fmt.Fprintf(w, "%s: uses branch instead of tag.\n", r.Name)
			printed = true
		}
		if !r.UseBranch && !r.UseTag {
			fmt.Fprintf(w, "%s: has not defined tag or branch to use.\n", r.Name)
			printed = true
		}
		if !r.HasUpdates() {
			continue
		}
		printed = true
		current, date := "unknown", "unknown date"
		if r.Current != nil {
			current, date = r.Current.Name, FormatDate(*r.Current)
		}
		fmt.Fprintf(w, "%s current version: %s (%s); available updates:\n", r.Name, current, date)
		for _, u := range r.Updates {
			fmt.Fprintf(w, "    %s (tagged at %s)\n", u.Name, FormatDate(u))
		}
	}
}
