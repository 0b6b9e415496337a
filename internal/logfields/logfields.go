package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDocument    = "document"
	KeyCommand     = "command"
	KeyOrigin      = "origin"
	KeyComponentID = "component_id"
	KeySectionID   = "section_id"
	KeyColumn      = "column"
	KeyStrategy    = "strategy"
	KeyRevision    = "revision"
	KeyHash        = "hash"
	KeyCursor      = "cursor"
	KeyEntries     = "entries"
	KeySignal      = "signal"
	KeyReason      = "reason"
	KeyPath        = "path"
	KeySubject     = "subject"
	KeyJobID       = "job_id"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Document(id string) slog.Attr    { return slog.String(KeyDocument, id) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Origin(o string) slog.Attr       { return slog.String(KeyOrigin, o) }
func ComponentID(id string) slog.Attr { return slog.String(KeyComponentID, id) }
func SectionID(id string) slog.Attr   { return slog.String(KeySectionID, id) }
func Column(c int) slog.Attr          { return slog.Int(KeyColumn, c) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func Revision(r uint64) slog.Attr     { return slog.Uint64(KeyRevision, r) }
func Hash(h string) slog.Attr         { return slog.String(KeyHash, h) }
func Cursor(c int) slog.Attr          { return slog.Int(KeyCursor, c) }
func Entries(n int) slog.Attr         { return slog.Int(KeyEntries, n) }
func Signal(name string) slog.Attr    { return slog.String(KeySignal, name) }
func Reason(code string) slog.Attr    { return slog.String(KeyReason, code) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
