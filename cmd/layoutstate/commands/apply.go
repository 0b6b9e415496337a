package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/layoutstate/internal/diff"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/script"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

// ApplyCmd implements the 'apply' command.
type ApplyCmd struct {
	Script    string `arg:"" help:"Command script (YAML)" type:"existingfile"`
	Payload   string `short:"p" help:"Hydration payload; overrides the script's payload" type:"path"`
	KeepGoing bool   `short:"k" name:"keep-going" help:"Report failed commands and continue"`
	Final     bool   `help:"Also print the final document"`
}

// NotificationLine is one line of 'apply' output.
type NotificationLine struct {
	Revision uint64        `json:"revision"`
	Command  string        `json:"command"`
	Origin   string        `json:"origin"`
	Label    string        `json:"label,omitempty"`
	Changed  bool          `json:"changed"`
	Strategy diff.Strategy `json:"strategy"`
	Changes  diff.Summary  `json:"changes"`
	Hash     string        `json:"hash"`
}

// FailureLine reports a rejected command.
type FailureLine struct {
	Step    int    `json:"step"`
	Command string `json:"command"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
}

func (a *ApplyCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	sc, err := script.Load(a.Script)
	if err != nil {
		return err
	}
	if a.Payload != "" {
		sc.Payload = a.Payload
	}
	return RunApply(context.Background(), out(g), root.Logger(), sc, cfg.History.Capacity, a.KeepGoing, a.Final)
}

// RunApply hydrates a store from the script's payload and dispatches every
// command, writing a JSON line per notification to w.
func RunApply(ctx context.Context, w io.Writer, logger *slog.Logger, sc script.Script, capacity int, keepGoing, final bool) error {
	initial := layout.NewState()
	if sc.Payload != "" {
		st, err := layout.LoadPayload(sc.Payload)
		if err != nil {
			return err
		}
		initial = st
	}

	st := store.New(
		store.WithHistory(history.New(history.WithCapacity(capacity), history.WithLogger(logger))),
		store.WithLogger(logger),
	)
	enc := json.NewEncoder(w)
	var writeErr error
	unsubscribe := st.Subscribe(func(n store.Notification) {
		if writeErr != nil {
			return
		}
		writeErr = enc.Encode(NotificationLine{
			Revision: n.Revision,
			Command:  n.Command,
			Origin:   string(n.Origin),
			Label:    n.Label,
			Changed:  n.Changed,
			Strategy: n.Strategy,
			Changes:  n.ChangeSet.Summary(),
			Hash:     n.State.Hash(),
		})
	})
	defer unsubscribe()

	if res := st.Hydrate(ctx, initial); res.IsErr() {
		return res.UnwrapErr()
	}

	failed := 0
	for i, cmd := range sc.Commands {
		res := st.Dispatch(ctx, cmd)
		if writeErr != nil {
			return fmt.Errorf("write notification: %w", writeErr)
		}
		if res.IsOk() {
			continue
		}
		err := res.UnwrapErr()
		if !keepGoing {
			return err.WithContext("step", i).WithContext("command", cmd.Name())
		}
		failed++
		logger.Warn("Command rejected", logfields.Command(cmd.Name()), logfields.Reason(ferrors.ReasonCode(err)))
		line := FailureLine{Step: i, Command: cmd.Name(), Error: err.Message(), Reason: ferrors.ReasonCode(err)}
		if encErr := enc.Encode(line); encErr != nil {
			return fmt.Errorf("write failure: %w", encErr)
		}
	}

	if final {
		if err := enc.Encode(st.Get()); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	}
	logger.Info("Script applied",
		slog.Int("commands", len(sc.Commands)),
		slog.Int("failed", failed),
		logfields.Revision(st.Revision()))
	if failed > 0 {
		return ferrors.ValidationError(fmt.Sprintf("%d of %d commands failed", failed, len(sc.Commands))).
			WithContext("reason", "commands_failed").
			Build()
	}
	return nil
}
