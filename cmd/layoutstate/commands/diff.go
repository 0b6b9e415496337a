package commands

import (
	"encoding/json"
	"io"

	"git.home.luguber.info/inful/layoutstate/internal/diff"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// DiffCmd implements the 'diff' command.
type DiffCmd struct {
	Old string `arg:"" help:"Previous payload" type:"existingfile"`
	New string `arg:"" help:"Next payload" type:"existingfile"`
}

// DiffReport is the output of 'diff'.
type DiffReport struct {
	Strategy diff.Strategy `json:"strategy"`
	Changes  diff.Summary  `json:"changes"`
	OldHash  string        `json:"old_hash"`
	NewHash  string        `json:"new_hash"`
}

func (d *DiffCmd) Run(g *Global, root *CLI) error {
	return RunDiff(out(g), d.Old, d.New, &diff.Engine{Logger: root.Logger()})
}

// RunDiff loads both payloads, normalizes them and writes their DiffReport.
func RunDiff(w io.Writer, oldPath, newPath string, engine *diff.Engine) error {
	prev, err := layout.LoadPayload(oldPath)
	if err != nil {
		return err
	}
	next, err := layout.LoadPayload(newPath)
	if err != nil {
		return err
	}
	prev.Normalize()
	next.Normalize()

	cs := engine.Diff(&prev, &next)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(DiffReport{
		Strategy: diff.Classify(cs),
		Changes:  cs.Summary(),
		OldHash:  prev.Hash(),
		NewHash:  next.Hash(),
	})
}
