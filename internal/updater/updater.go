// Package updater writes checker results back into a snapcraft.yaml
// without disturbing the rest of the file.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/docmodel"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/snapcraft"
	"git.home.luguber.info/inful/updatesnap/internal/snapversion"
)

// Change is one rewritten line.
type Change struct {
	// Part is empty for top-level fields.
	Part  string
	Field string
	From  string
	To    string
	Line  int
}

func (c Change) String() string {
	if c.Part == "" {
		return fmt.Sprintf("%s: %s -> %s", c.Field, c.From, c.To)
	}
	return fmt.Sprintf("%s %s: %s -> %s", c.Part, c.Field, c.From, c.To)
}

// ApplyTags points every tag pinned part with updates at its newest tag.
func ApplyTags(doc *docmodel.Document, results []*checker.PartResult) []Change {
	var changes []Change
	for _, r := range results {
		if r == nil || !r.UseTag || !r.HasUpdates() {
			continue
		}
		node := doc.PartElement(r.Name, "source-tag:")
		if node == nil {
			continue
		}
		from := node.Value()
		if r.Current != nil {
			from = r.Current.Name
		}
		to := r.Newest().Name
		node.SetText(fmt.Sprintf("source-tag: '%s'", to))
		changes = append(changes, Change{Part: r.Name, Field: "source-tag", From: from, To: to, Line: node.Line()})
	}
	return changes
}

// ApplyVersion rewrites the top-level version and grade lines when they
// differ from res. Fields without a line in the document are reported in
// missing.
func ApplyVersion(doc *docmodel.Document, md *checker.Metadata, res *snapversion.Result) (changes []Change, missing []string) {
	fields := []struct{ name, current, next string }{
		{"version", md.Version, res.Version},
		{"grade", md.Grade, res.Grade},
	}
	for _, f := range fields {
		if f.current == f.next {
			continue
		}
		node := doc.PartMetadata(f.name + ":")
		if node == nil {
			missing = append(missing, f.name)
			continue
		}
		node.SetText(fmt.Sprintf("%s: '%s'", f.name, f.next))
		changes = append(changes, Change{Field: f.name, From: f.current, To: f.next, Line: node.Line()})
	}
	return changes, missing
}

// VersionResolver computes a snap version.
type VersionResolver interface {
	Next(ctx context.Context, snap, repoURL string, schema *regexp.Regexp) (*snapversion.Result, error)
}

// Options configures an Updater run.
type Options struct {
	// Schema enables version and grade updates.
	Schema   *regexp.Regexp
	Resolver VersionResolver
	Checker  []checker.Option
	Logger   *slog.Logger
}

// Outcome is the result of one run.
type Outcome struct {
	// Parts counts the parts declared in the document, including those
	// skipped without a result.
	Parts   int
	Results []*checker.PartResult
	Changes []Change
	// Flagged is set when a part raised the run flag; nothing is rewritten
	// then.
	Flagged bool
	// Version is the new snap version, when it changed.
	Version string
	// Output is the rewritten document. It is nil when nothing changed.
	Output []byte
}

// Updated reports whether the document was rewritten.
func (o *Outcome) Updated() bool { return len(o.Changes) > 0 }

// Run checks content and rewrites it.
func Run(ctx context.Context, content []byte, lister checker.Lister, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	project, err := snapcraft.Parse(content)
	if err != nil {
		return nil, err
	}
	doc, err := docmodel.Parse(content, docmodel.Options{})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse document").Fatal().Build()
	}

	c := checker.New(project, lister, append([]checker.Option{checker.WithLogger(logger)}, opts.Checker...)...)
	results, flag, err := c.CheckAll(ctx)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Parts: len(project.Parts), Results: results, Flagged: flag}
	if flag {
		return out, nil
	}

	out.Changes = ApplyTags(doc, results)
	for _, ch := range out.Changes {
		logger.Info("Updating part", logfields.Part(ch.Part), slog.String("from", ch.From), slog.String("to", ch.To))
	}

	if opts.Schema != nil && opts.Resolver != nil {
		md, err := c.Metadata(ctx, results)
		if err != nil {
			return nil, err
		}
		res, err := opts.Resolver.Next(ctx, md.Name, md.UpstreamURL, opts.Schema)
		switch {
		case errors.HasCategory(err, errors.CategoryValidation):
			logger.Warn("Snap version not updated", logfields.Error(err))
		case err != nil:
			return nil, err
		default:
			changes, missing := ApplyVersion(doc, md, res)
			for _, name := range missing {
				logger.Warn("Field is not defined in metadata", slog.String("field", name))
			}
			for _, ch := range changes {
				logger.Info("Updating snap "+ch.Field, slog.String("from", ch.From), slog.String("to", ch.To))
				if ch.Field == "version" {
					out.Version = ch.To
				}
			}
			out.Changes = append(out.Changes, changes...)
		}
	}

	if out.Updated() {
		out.Output = doc.Bytes()
	}
	return out, nil
}
