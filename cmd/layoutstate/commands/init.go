package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/layoutstate/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Path  string `arg:"" optional:"" help:"Where to write the configuration" default:"layoutstate.yaml" type:"path"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	return RunInit(out(g), i.Path, i.Force)
}

// RunInit writes an example configuration.
func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
