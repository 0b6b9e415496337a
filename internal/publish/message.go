// Package publish forwards StateChanged events from the in-process bus to
// external sinks. The NATS publisher sends each change to a JetStream subject
// per document and keeps the latest state in a KeyValue bucket.
package publish

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/events"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// Message is the wire form of a state change.
type Message struct {
	Document  string          `json:"document"`
	Revision  uint64          `json:"revision"`
	Command   string          `json:"command"`
	Origin    string          `json:"origin"`
	Label     string          `json:"label,omitempty"`
	Hash      string          `json:"hash"`
	ChangedAt time.Time       `json:"changed_at"`
	State     layout.Snapshot `json:"state"`
}

// NewMessage converts a bus event.
func NewMessage(evt events.StateChanged) Message {
	return Message{
		Document:  evt.Document,
		Revision:  evt.Revision,
		Command:   evt.Command,
		Origin:    evt.Origin,
		Label:     evt.Label,
		Hash:      evt.State.Hash(),
		ChangedAt: evt.ChangedAt.UTC(),
		State:     evt.State,
	}
}

// Encode renders evt as JSON.
func Encode(evt events.StateChanged) ([]byte, error) {
	return json.Marshal(NewMessage(evt))
}

// Decode parses a message produced by Encode.
func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

// token makes s usable as one NATS subject token or KV key segment.
func token(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// Subject returns the subject for document under base.
func Subject(base, document string) string {
	return base + "." + token(document)
}

// StreamSubjects returns the stream filter covering every document under base.
func StreamSubjects(base string) []string {
	return []string{base + ".>"}
}

// StreamName derives a JetStream stream name from base.
func StreamName(base string) string {
	return strings.ToUpper(token(base))
}

// KVKey returns the KeyValue key holding document's latest state.
func KVKey(document string) string {
	return "doc." + token(document)
}

// MsgID deduplicates redeliveries of the same revision.
func MsgID(evt events.StateChanged) string {
	return token(evt.Document) + "-" + evt.State.Hash()[:16] + "-" + strconv.FormatUint(evt.Revision, 10)
}
