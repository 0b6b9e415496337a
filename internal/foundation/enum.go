package foundation

import (
	"slices"
	"strings"
)

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps loosely written names (any case, surrounding space,
// aliases) onto an enumeration.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
}

// NewNormalizer builds a normalizer from alias -> value pairs. Unknown input
// maps to fallback in Normalize.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	folded := make(map[string]T, len(values))
	for k, v := range values {
		folded[foldKey(k)] = v
	}
	return &Normalizer[T]{values: folded, fallback: fallback}
}

// Normalize returns the value for raw, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[foldKey(raw)]; ok {
		return v
	}
	return n.fallback
}

// Lookup returns the value for raw and whether it was recognized.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[foldKey(raw)]
	return v, ok
}

// Aliases lists every accepted spelling, sorted.
func (n *Normalizer[T]) Aliases() []string {
	out := make([]string, 0, len(n.values))
	for k := range n.values {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
