package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/layoutstate/cmd/layoutstate/commands"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("layoutstate"),
		kong.Description("Authoritative layout document store with undo/redo, diffing and section placement."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := parser.Run(&commands.Global{Logger: cli.Logger()}, &cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, cli.Logger()).HandleError(err)
}
