package commands

import (
	"fmt"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/snapversion"
	"git.home.luguber.info/inful/updatesnap/internal/updater"
)

// UpdateCmd implements the 'update' command.
type UpdateCmd struct {
	Project       string `arg:"" help:"URL of the GitHub or GitLab project holding the snapcraft.yaml"`
	VersionSchema string `name:"version-schema" help:"Regular expression whose first group extracts the upstream version from 'git describe'"`
	Output        string `short:"o" default:"output_file" help:"File receiving the rewritten snapcraft.yaml"`
	VersionFile   string `name:"version-file" default:"version_file" help:"File receiving the new snap version"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	if u.Project == "" || u.Project == "." {
		return ferrors.ValidationError("a project URI is mandatory").Build()
	}
	cfg, err := root.load(g, "")
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

	remote, err := updater.FetchProject(ctx, env.forges, u.Project)
	if err != nil {
		return err
	}
	g.Logger.Info("Fetched snapcraft file", logfields.URL(u.Project), logfields.Branch(remote.Ref), logfields.Path(remote.Path))

	opts := updater.Options{
		Logger:  g.Logger,
		Checker: []checker.Option{checker.WithRecorder(env.recorder)},
	}
	if u.VersionSchema != "" && u.VersionSchema != "None" {
		schema, err := snapversion.CompileSchema(u.VersionSchema)
		if err != nil {
			return err
		}
		opts.Schema = schema
		opts.Resolver = snapversion.NewResolver(
			snapversion.NewStoreClient(snapversion.DefaultStoreURL, env.forgeOpts),
			snapversion.GitInspector{User: cfg.Secrets.GitHub.User, Token: cfg.Secrets.GitHub.Token, Logger: g.Logger},
			g.Logger,
		)
	}

	out, err := updater.Run(ctx, remote.Content, env.forges, opts)
	if err != nil {
		return err
	}
	return u.finish(g, out)
}

func (u *UpdateCmd) finish(g *Global, out *updater.Outcome) error {
	if out.Flagged {
		return errFlagged
	}
	if out.Parts == 0 {
		_, _ = fmt.Fprintln(g.Err, "The snapcraft.yaml file has no parts.")
		return nil
	}
	if !out.Updated() {
		_, _ = fmt.Fprintln(g.Err, "No updates available")
		return nil
	}
	for _, ch := range out.Changes {
		_, _ = fmt.Fprintln(g.Err, ch.String())
	}
	if err := writeFile(u.Output, out.Output); err != nil {
		return err
	}
	if out.Version != "" {
		if err := writeFile(u.VersionFile, []byte(out.Version)); err != nil {
			return err
		}
	}
	return nil
}
