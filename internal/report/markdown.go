package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// Markdown renders results as a Markdown digest with one table row per
// part.
func Markdown(title string, results []*checker.PartResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(results) == 0 {
		b.WriteString("No parts checked.\n")
		return b.Bytes()
	}
	b.WriteString("| Part | Pinned | Newest | Status |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range results {
		if r == nil {
			continue
		}
		newest := "-"
		if n := r.Newest(); n != nil {
			newest = n.Name
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(r.Name), cell(pinned(r)), cell(newest), status(r))
	}

	for _, r := range results {
		if r == nil || !r.HasUpdates() {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", r.Name)
		for _, u := range r.Updates {
			fmt.Fprintf(&b, "- `%s` (tagged at %s)\n", u.Name, FormatDate(u))
		}
	}
	return b.Bytes()
}

// HTML renders the Markdown digest to HTML.
func HTML(title string, results []*checker.PartResult) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var out bytes.Buffer
	if err := md.Convert(Markdown(title, results), &out); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render report").Build()
	}
	return out.Bytes(), nil
}

func pinned(r *checker.PartResult) string {
	switch {
	case r.Current != nil:
		return r.Current.Name
	case r.UseBranch:
		return r.CurrentBranch
	default:
		return "-"
	}
}

func status(r *checker.PartResult) string {
	switch {
	case r.Flagged:
		return "error"
	case r.Skipped:
		return "skipped"
	case r.HasUpdates():
		return "updates"
	case r.MissingFormat:
		return "missing format"
	default:
		return "current"
	}
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
