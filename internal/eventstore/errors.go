package eventstore

// Sentinel errors for journal operations. They are wrapped with the
// underlying cause, so callers match them with errors.Is.

import (
	"git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.PersistenceError("could not open history journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.PersistenceError("failed to initialize history journal schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.PersistenceError("failed to append event to journal").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.PersistenceError("failed to query events from journal").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of an event payload failed.
	ErrMarshalPayloadFailed = errors.PersistenceError("failed to marshal journal payload").Build()

	// ErrUnmarshalPayloadFailed indicates JSON unmarshaling of an event payload failed.
	ErrUnmarshalPayloadFailed = errors.PersistenceError("failed to unmarshal journal payload").Build()
)
