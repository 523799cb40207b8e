package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/updatesnap/cmd/updatesnap/commands"
	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout, Err: os.Stderr}
	ctx := kong.Parse(cli,
		kong.Name("updatesnap"),
		kong.Description("Find newer upstream versions for the parts of snapcraft projects."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := ctx.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
