package store

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/layoutstate/internal/diff"
	"git.home.luguber.info/inful/layoutstate/internal/events"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
	"git.home.luguber.info/inful/layoutstate/internal/observability"
	"git.home.luguber.info/inful/layoutstate/internal/readiness"
	"git.home.luguber.info/inful/layoutstate/internal/sections"
)

// Dispatch runs cmd as a user command. Undo and Redo are routed to the
// history manager.
func (s *Store) Dispatch(ctx context.Context, cmd Command) Result {
	return s.DispatchFrom(ctx, cmd, OriginUser)
}

// DispatchFrom runs cmd with the given origin. OriginReplay is reserved for
// history replays.
func (s *Store) DispatchFrom(ctx context.Context, cmd Command, origin Origin) Result {
	switch cmd.(type) {
	case Undo, *Undo:
		return s.Undo(ctx)
	case Redo, *Redo:
		return s.Redo(ctx)
	case nil:
		return fail(ferrors.ValidationError("command is required").WithContext("reason", "invalid_command").Build())
	}
	if origin == OriginReplay || origin == OriginHydrate {
		return fail(ferrors.ValidationError("origin is reserved").
			WithContext("origin", string(origin)).
			WithContext("reason", "invalid_origin").
			Build())
	}
	if origin == "" {
		origin = OriginUser
	}
	return s.execute(ctx, cmd, origin)
}

func (s *Store) scope(ctx context.Context, command string, origin Origin) context.Context {
	ctx = observability.WithDocument(ctx, s.document)
	ctx = observability.WithCommand(ctx, command)
	return observability.WithOrigin(ctx, string(origin))
}

func (s *Store) execute(ctx context.Context, cmd Command, origin Origin) Result {
	name := cmd.Name()
	ctx = s.scope(ctx, name, origin)
	start := s.now()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	prev := s.committed()
	work := prev.Clone()
	tx := &Tx{ctx: ctx, state: &work, sections: s.sections, ids: s.ids}
	if err := applySafely(cmd, tx); err != nil {
		ce := classify(err)
		s.recorder.IncDispatch(name, metrics.OutcomeRejected)
		s.recorder.ObserveDispatchDuration(name, s.now().Sub(start))
		s.logger.Info(ctx, "command rejected",
			logfields.Reason(ferrors.ReasonCode(ce)), logfields.Error(ce))
		return fail(ce)
	}
	s.enforce(ctx, &work)

	label := tx.label
	if label == "" {
		label = history.Label(name, "")
	}
	out := s.commit(ctx, name, origin, label, &prev, work, tx.outcome)
	s.recorder.ObserveDispatchDuration(name, s.now().Sub(start))
	return ok(out)
}

func applySafely(cmd Command, tx *Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.InternalError(fmt.Sprintf("command panicked: %v", r)).
				WithContext("command", cmd.Name()).
				WithContext("reason", "internal").
				Build()
		}
	}()
	return cmd.Apply(tx)
}

// committed returns the committed state. Committed states are never mutated
// in place, so the shallow copy is safe to read while opMu is held.
func (s *Store) committed() layout.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// enforce normalizes the working copy and repairs placement divergence.
func (s *Store) enforce(ctx context.Context, work *layout.State) {
	work.Normalize()
	issues := sections.Check(work)
	if len(issues) == 0 {
		return
	}
	detail := make([]string, len(issues))
	for i, is := range issues {
		detail[i] = is.String()
	}
	cerr := ferrors.ConsistencyError("section placement diverged after command").
		WithContext("issues", detail).
		WithContext("reason", "placement_divergence").
		Build()
	fixes := s.sections.Repair(work)
	s.recorder.AddConsistencyRepairs(fixes)
	s.logger.Warn(ctx, "repaired placement", slog.Int("fixes", fixes), logfields.Error(cerr))
}

// commit installs work as the committed state, captures history and
// notifies subscribers. Callers hold opMu.
func (s *Store) commit(ctx context.Context, command string, origin Origin, label string, prev *layout.State, work layout.State, out Outcome) Outcome {
	cs := s.diff.Diff(prev, &work)
	strategy := diff.Classify(cs)
	if origin == OriginHydrate {
		strategy = diff.FullRender
	}
	snap := layout.NewSnapshot(&work)
	changed := snap.Hash() != prev.Hash()

	s.mu.Lock()
	s.state = work
	if changed {
		s.revision++
	}
	rev := s.revision
	s.mu.Unlock()

	ctx = observability.WithRevision(ctx, rev)

	if h := s.history.Load(); h != nil && origin != OriginHydrate {
		h.Capture(ctx, snap, label, origin == OriginReplay)
	}

	out.Command = command
	out.Label = label
	out.Revision = rev
	out.Changed = changed
	out.Strategy = strategy
	out.Changes = cs.Summary()
	out.Hash = snap.Hash()

	s.notify(ctx, Notification{
		ChangeSet: cs,
		Strategy:  strategy,
		State:     snap,
		Revision:  rev,
		Command:   command,
		Origin:    origin,
		Label:     label,
		Changed:   changed,
	})

	if changed {
		s.publish(ctx, events.StateChanged{
			Document:  s.document,
			Revision:  rev,
			Command:   command,
			Origin:    string(origin),
			Label:     label,
			State:     snap,
			ChangedAt: s.now(),
		})
	}

	outcome := metrics.OutcomeAccepted
	if !changed {
		outcome = metrics.OutcomeNoop
	}
	s.recorder.IncDispatch(command, outcome)
	s.recorder.IncRenderStrategy(string(strategy))
	s.logger.Debug(ctx, "command committed",
		logfields.Strategy(string(strategy)), logfields.Hash(snap.Hash()),
		slog.String("changes", cs.String()))
	return out
}

// Hydrate installs the initial document: it normalizes st, adopts unplaced
// components once, seeds history and announces the store signal. It runs
// once; later reloads go through ReplaceState.
func (s *Store) Hydrate(ctx context.Context, st layout.State) Result {
	const name = "hydrate"
	ctx = s.scope(ctx, name, OriginHydrate)

	s.opMu.Lock()
	if s.Hydrated() {
		s.opMu.Unlock()
		return fail(ferrors.ValidationError("store already hydrated").WithContext("reason", "already_hydrated").Build())
	}

	prev := s.committed()
	work := st.Clone()
	s.enforce(ctx, &work)
	tx := &Tx{ctx: ctx, state: &work, sections: s.sections, ids: s.ids}
	if err := applySafely(AutoAdopt{}, tx); err != nil {
		s.opMu.Unlock()
		return fail(err)
	}
	s.enforce(ctx, &work)

	out := s.commit(ctx, name, OriginHydrate, "Initial state", &prev, work, tx.outcome)
	s.mu.Lock()
	s.hydrated = true
	s.mu.Unlock()
	if h := s.history.Load(); h != nil {
		h.Seed(ctx, s.Get(), "Initial state")
	}
	s.opMu.Unlock()

	s.logger.Info(ctx, "store hydrated",
		slog.Int("components", len(work.Components)),
		slog.Int("sections", len(work.Sections)),
		slog.Int("adopted", len(out.Adopted)))
	if s.coordinator != nil {
		s.coordinator.Announce(readiness.SignalStore, s)
	}
	return ok(out)
}

// Undo restores the previous history entry. At the oldest entry it returns
// an unchanged outcome and emits nothing.
func (s *Store) Undo(ctx context.Context) Result { return s.replay(ctx, history.ActionUndo) }

// Redo restores the next history entry. At the newest entry it returns an
// unchanged outcome and emits nothing.
func (s *Store) Redo(ctx context.Context) Result { return s.replay(ctx, history.ActionRedo) }

func (s *Store) replay(ctx context.Context, action history.Action) Result {
	name := "undo"
	if action == history.ActionRedo {
		name = "redo"
	}
	ctx = s.scope(ctx, name, OriginReplay)
	start := s.now()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	h := s.history.Load()
	if h == nil {
		return fail(ferrors.ReadinessError("history is not attached").
			WithContext("signal", readiness.SignalHistory).
			WithContext("reason", "history_not_ready").
			Build())
	}

	current, _ := h.Current()
	var out Outcome
	apply := func(ctx context.Context, e history.Entry) error {
		label := "Redo " + e.Label
		if action == history.ActionUndo {
			label = "Undo " + current.Label
		}
		prev := s.committed()
		out = s.commit(ctx, name, OriginReplay, label, &prev, e.Snapshot.State(), Outcome{})
		return nil
	}

	var moved bool
	if action == history.ActionUndo {
		moved = h.Undo(ctx, apply)
	} else {
		moved = h.Redo(ctx, apply)
	}
	s.recorder.ObserveDispatchDuration(name, s.now().Sub(start))
	if !moved {
		s.recorder.IncDispatch(name, metrics.OutcomeNoop)
		snap := s.Get()
		return ok(Outcome{Command: name, Revision: s.Revision(), Hash: snap.Hash()})
	}
	out.Moved = true

	s.publish(ctx, events.HistoryMoved{
		Document: s.document,
		Action:   name,
		Cursor:   h.Cursor(),
		Entries:  h.Len(),
		Label:    out.Label,
		MovedAt:  s.now(),
	})
	return ok(out)
}
