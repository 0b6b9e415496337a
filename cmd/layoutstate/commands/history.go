package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/eventstore"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Journal   string `short:"j" help:"Journal database; defaults to persistence.journal_path" type:"path"`
	Document  string `short:"d" help:"Document id; defaults to document.id"`
	Documents bool   `help:"List journaled document ids instead of entries"`
	JSON      bool   `name:"json" help:"Print entries as JSON lines"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	path := h.Journal
	if path == "" {
		path = cfg.Persistence.JournalPath
	}
	if path == "" {
		return ferrors.ConfigError("no journal configured (set persistence.journal_path or --journal)").
			WithContext("reason", "journal_not_configured").
			Build()
	}
	doc := h.Document
	if doc == "" {
		doc = cfg.Document.ID
	}

	es, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = es.Close() }()

	if h.Documents {
		return RunDocuments(context.Background(), out(g), es)
	}
	return RunHistory(context.Background(), out(g), es, doc, h.JSON)
}

// RunDocuments prints every journaled document id.
func RunDocuments(ctx context.Context, w io.Writer, es *eventstore.SQLiteStore) error {
	docs, err := es.Documents(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

// RunHistory prints the journal of one document.
func RunHistory(ctx context.Context, w io.Writer, es eventstore.Store, document string, asJSON bool) error {
	entries, err := eventstore.ReadJournal(ctx, es, document)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		for _, e := range entries {
			e.State = nil
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		if _, err := fmt.Fprintf(w, "%s  %-8s %3d/%-3d %s  %s\n",
			e.EntryTime.UTC().Format(time.RFC3339), e.Action, e.Cursor, e.Entries, hash, e.Label); err != nil {
			return err
		}
	}
	return nil
}
