package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Document", KeyDocument, "doc-1", Document("doc-1")},
		{"Command", KeyCommand, "add_component", Command("add_component")},
		{"Origin", KeyOrigin, "replay", Origin("replay")},
		{"ComponentID", KeyComponentID, "c1", ComponentID("c1")},
		{"SectionID", KeySectionID, "s1", SectionID("s1")},
		{"Strategy", KeyStrategy, "reorder-only", Strategy("reorder-only")},
		{"Signal", KeySignal, "store", Signal("store")},
		{"Reason", KeyReason, "not_found", Reason("not_found")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Subject", KeySubject, "layout.changed", Subject("layout.changed")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.attrKey, tc.attr.Key)
			assert.Equal(t, tc.attrVal, tc.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, int64(2), Column(2).Value.Int64())
	assert.Equal(t, uint64(7), Revision(7).Value.Uint64())
	assert.Equal(t, int64(3), Cursor(3).Value.Int64())
}

func TestErrorHelper(t *testing.T) {
	assert.Empty(t, Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
