package commands

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/report"
	"git.home.luguber.info/inful/updatesnap/internal/runner"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Folder    string   `arg:"" optional:"" default:"." help:"Folder of the snapcraft project, or an http(s) URL of a snapcraft.yaml"`
	Parts     []string `arg:"" optional:"" help:"Only check these parts"`
	Recursive bool     `short:"r" help:"Process every snap found in the subfolders of the folder"`
	Silent    bool     `short:"s" help:"Silent output"`
	Markdown  string   `help:"Also write a Markdown report to this file" type:"path"`
	HTML      string   `name:"html" help:"Also write an HTML report to this file" type:"path"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	targets, err := runner.ResolveTargets(c.Folder, c.Recursive)
	if err != nil {
		return err
	}
	secretsDir := ""
	if !runner.IsURL(c.Folder) {
		secretsDir = c.Folder
	}
	cfg, err := root.load(g, secretsDir)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, err := newEnvironment(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer env.Close()

	printer := report.NewPrinter(g.Out, report.PrinterOptions{Silent: c.Silent})
	r := env.runner(printer.Diagnostic)

	var results []*checker.PartResult
	flagged := false
	for _, target := range targets {
		printer.Reset()
		sum, err := r.Check(ctx, target, "cli", c.Parts)
		if err != nil {
			return err
		}
		results = append(results, sum.Results...)
		flagged = flagged || sum.Flagged
	}
	report.WriteSummary(g.Out, results)

	if err := c.writeReports(results); err != nil {
		return err
	}
	if flagged {
		return errFlagged
	}
	return nil
}

func (c *CheckCmd) writeReports(results []*checker.PartResult) error {
	title := "Updates for " + filepath.Base(filepath.Clean(c.Folder))
	if c.Markdown != "" {
		if err := writeFile(c.Markdown, report.Markdown(title, results)); err != nil {
			return err
		}
	}
	if c.HTML != "" {
		page, err := report.HTML(title, results)
		if err != nil {
			return err
		}
		if err := writeFile(c.HTML, page); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	// #nosec G306 -- reports and rewritten snapcraft files are meant to be shared.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write file").
			WithContext("path", path).
			Build()
	}
	return nil
}
