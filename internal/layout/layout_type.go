package layout

import (
	"maps"

	"git.home.luguber.info/inful/layoutstate/internal/foundation"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// LayoutType names a section arrangement.
type LayoutType string

const (
	FullWidth   LayoutType = "full_width"
	TwoColumn   LayoutType = "two_column"
	ThreeColumn LayoutType = "three_column"
	Grid        LayoutType = "grid"
	Hero        LayoutType = "hero"
)

var layoutTypeNormalizer = foundation.NewNormalizer(map[string]LayoutType{
	"full_width":   FullWidth,
	"full-width":   FullWidth,
	"fullwidth":    FullWidth,
	"two_column":   TwoColumn,
	"two-column":   TwoColumn,
	"2-column":     TwoColumn,
	"three_column": ThreeColumn,
	"three-column": ThreeColumn,
	"3-column":     ThreeColumn,
	"grid":         Grid,
	"hero":         Hero,
}, "")

// ParseLayoutType normalizes raw into a known LayoutType. An empty string yields FullWidth.
func ParseLayoutType(raw string) (LayoutType, error) {
	if raw == "" {
		return FullWidth, nil
	}
	lt, ok := layoutTypeNormalizer.Lookup(raw)
	if !ok {
		return "", ferrors.ValidationError("unknown layout type").
			WithContext("layout_type", raw).
			WithContext("accepted", layoutTypeNormalizer.Aliases()).
			WithContext("reason", "invalid_layout_type").
			Build()
	}
	return lt, nil
}

// Columns returns the number of columns of the layout type.
func (t LayoutType) Columns() int {
	switch t {
	case TwoColumn:
		return 2
	case ThreeColumn, Grid:
		return 3
	default:
		return 1
	}
}

var defaultSectionConfigs = map[LayoutType]Props{
	FullWidth:   {"width": "100%", "max_width": "1200px", "padding": "40px 20px", "columns": 1},
	TwoColumn:   {"width": "100%", "max_width": "1200px", "padding": "40px 20px", "columns": 2, "column_gap": "30px"},
	ThreeColumn: {"width": "100%", "max_width": "1200px", "padding": "40px 20px", "columns": 3, "column_gap": "20px"},
	Grid:        {"width": "100%", "max_width": "1200px", "padding": "40px 20px", "columns": 3, "gap": "20px"},
	Hero:        {"width": "100%", "max_width": "100%", "padding": "80px 20px", "columns": 1, "text_align": "center"},
}

// DefaultSectionConfig returns a fresh copy of the default config for t.
func DefaultSectionConfig(t LayoutType) Props {
	out := Props{}
	maps.Copy(out, defaultSectionConfigs[t])
	return out
}
