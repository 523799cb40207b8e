// Package report renders check results for people: a streaming console
// log grouped by part, the end of run summary and a Markdown/HTML digest.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

var (
	colorCritical = lipgloss.Color("1")
	colorWarning  = lipgloss.Color("3")
	colorNote     = lipgloss.Color("6")
)

type styles struct {
	critical lipgloss.Style
	warning  lipgloss.Style
	note     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		return styles{critical: r.NewStyle(), warning: r.NewStyle(), note: r.NewStyle()}
	}
	return styles{
		critical: r.NewStyle().Foreground(colorCritical),
		warning:  r.NewStyle().Foreground(colorWarning),
		note:     r.NewStyle().Foreground(colorNote),
	}
}

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	// Silent drops informational lines. Warnings and errors are always
	// printed.
	Silent bool
	// Color turns styling on or off. Nil enables it on terminals.
	Color *bool
}

// Printer writes diagnostics grouped under a "Part:" header. It remembers
// the last part it printed a header for; that is its only state.
type Printer struct {
	w        io.Writer
	styles   styles
	silent   bool
	lastPart string
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, opts PrinterOptions) *Printer {
	r := lipgloss.NewRenderer(w)
	color := false
	if opts.Color != nil {
		color = *opts.Color
		if color {
			r.SetColorProfile(termenv.ANSI)
		}
	} else if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		w:      w,
		styles: newStyles(r, color),
		silent: opts.Silent,
	}
}

// Diagnostic prints one diagnostic. Its signature matches
// checker.DiagnosticFunc.
func (p *Printer) Diagnostic(part, source string, d versioning.Diagnostic) {
	var style *lipgloss.Style
	switch d.Severity {
	case ferrors.SeverityFatal, ferrors.SeverityCritical, ferrors.SeverityError:
		style = &p.styles.critical
	case ferrors.SeverityWarning:
		style = &p.styles.warning
	default:
		if p.silent {
			return
		}
	}
	p.header(part, source)
	if style != nil {
		fmt.Fprintf(p.w, "  %s\n", style.Render(d.Message))
		return
	}
	fmt.Fprintf(p.w, "  %s\n", d.Message)
}

// Reset forgets the last part, so the next diagnostic prints a header.
func (p *Printer) Reset() { p.lastPart = "" }

func (p *Printer) header(part, source string) {
	if part == p.lastPart {
		return
	}
	p.lastPart = part
	if source != "" {
		fmt.Fprintf(p.w, "Part: %s (%s)\n", p.styles.note.Render(part), source)
		return
	}
	fmt.Fprintf(p.w, "Part: %s\n", p.styles.note.Render(part))
}
