package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// HashCmd implements the 'hash' command.
type HashCmd struct {
	Payloads []string `arg:"" help:"Payload files" type:"existingfile"`
}

func (h *HashCmd) Run(g *Global, _ *CLI) error {
	return RunHash(out(g), h.Payloads)
}

// RunHash prints "<hash>  <path>" for each normalized payload.
func RunHash(w io.Writer, paths []string) error {
	for _, p := range paths {
		st, err := layout.LoadPayload(p)
		if err != nil {
			return err
		}
		st.Normalize()
		if _, err := fmt.Fprintf(w, "%s  %s\n", st.Hash(), p); err != nil {
			return err
		}
	}
	return nil
}
