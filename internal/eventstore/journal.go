package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// JournalEntry is the stored payload of one history transition.
type JournalEntry struct {
	Action    history.Action   `json:"action"`
	Label     string           `json:"label"`
	Hash      string           `json:"hash"`
	Cursor    int              `json:"cursor"`
	Entries   int              `json:"entries"`
	EntryTime time.Time        `json:"entry_time"`
	State     *layout.Snapshot `json:"state,omitempty"`
}

// Journal adapts a Store to history.Journal for one document.
type Journal struct {
	store      Store
	documentID string
	withState  bool
}

// NewJournal returns a journal writing to store under documentID. When
// withState is set, captured and seeded entries carry the full state so the
// document can be restored from the journal alone.
func NewJournal(store Store, documentID string, withState bool) *Journal {
	return &Journal{store: store, documentID: documentID, withState: withState}
}

// Record implements history.Journal.
func (j *Journal) Record(ctx context.Context, rec history.Record) error {
	entry := JournalEntry{
		Action:    rec.Action,
		Label:     rec.Entry.Label,
		Hash:      rec.Entry.Snapshot.Hash(),
		Cursor:    rec.Cursor,
		Entries:   rec.Entries,
		EntryTime: rec.Entry.Timestamp,
	}
	if j.withState && (rec.Action == history.ActionCaptured || rec.Action == history.ActionSeeded) {
		snap := rec.Entry.Snapshot
		entry.State = &snap
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalPayloadFailed, err)
	}
	meta := map[string]string{"cursor": strconv.Itoa(rec.Cursor), "hash": entry.Hash}
	return j.store.Append(ctx, j.documentID, string(rec.Action), payload, meta)
}

// Entries decodes every journal entry of the document in append order.
func (j *Journal) Entries(ctx context.Context) ([]JournalEntry, error) {
	return ReadJournal(ctx, j.store, j.documentID)
}

// ReadJournal decodes every journal entry of documentID in append order.
func ReadJournal(ctx context.Context, store Store, documentID string) ([]JournalEntry, error) {
	events, err := store.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]JournalEntry, 0, len(events))
	for _, e := range events {
		var entry JournalEntry
		if err := json.Unmarshal(e.Payload(), &entry); err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", ErrUnmarshalPayloadFailed, e.ID(), err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// LatestState returns the most recent full state recorded for documentID.
func LatestState(ctx context.Context, store Store, documentID string) (layout.State, bool, error) {
	entries, err := ReadJournal(ctx, store, documentID)
	if err != nil {
		return layout.State{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].State != nil {
			return entries[i].State.State(), true, nil
		}
	}
	return layout.State{}, false, nil
}

var _ history.Journal = (*Journal)(nil)
