package diff

// Strategy is the render plan for a change set.
type Strategy string

const (
	ReorderOnly      Strategy = "reorder-only"
	AddComponents    Strategy = "add-components"
	RemoveComponents Strategy = "remove-components"
	UpdateComponents Strategy = "update-components"
	FullRender       Strategy = "full-render"
)

// Classify picks the strategy for cs. Precedence: reorder-only when only moves
// happened, then add, remove and update. Anything else, including an empty
// change set, falls back to a full render.
func Classify(cs ChangeSet) Strategy {
	added := card(cs.Added)
	removed := card(cs.Removed)
	updated := card(cs.Updated)
	moved := card(cs.Moved)

	switch {
	case moved > 0 && added == 0 && removed == 0 && updated == 0:
		return ReorderOnly
	case added > 0:
		return AddComponents
	case removed > 0:
		return RemoveComponents
	case updated > 0:
		return UpdateComponents
	default:
		return FullRender
	}
}

func card[T interface{ Cardinality() int }](s T) int {
	if any(s) == nil {
		return 0
	}
	return s.Cardinality()
}
