package explain

import "strings"

// CanonTable maps encoded feature names back to their canonical (original)
// names. It is declared once from the model's schema, not inferred at runtime
// from the strings themselves: numeric columns map exactly, one-hot categorical
// columns map by prefix so every value of a category resolves to the same
// canonical name.
type CanonTable struct {
	exact    map[string]string
	prefixes []prefixRule
}

type prefixRule struct {
	prefix    string
	canonical string
}

// NewCanonTable builds an empty table. Populate it with DeclareNumeric and
// DeclareCategory when constructing a scorer.
func NewCanonTable() *CanonTable {
	return &CanonTable{exact: make(map[string]string)}
}

// DeclareNumeric registers a one-to-one encoded column.
func (t *CanonTable) DeclareNumeric(encoded, canonical string) *CanonTable {
	t.exact[encoded] = canonical
	return t
}

// DeclareCategory registers a one-to-many encoding: every encoded column
// starting with prefix belongs to the canonical category.
func (t *CanonTable) DeclareCategory(prefix, canonical string) *CanonTable {
	t.prefixes = append(t.prefixes, prefixRule{prefix: prefix, canonical: canonical})
	return t
}

// Resolve returns the canonical name for an encoded column. Exact matches win;
// otherwise the longest declared category prefix applies. Undeclared names
// resolve to themselves so an unexpected column degrades the label, not the
// decision.
func (t *CanonTable) Resolve(encoded string) string {
	if canonical, ok := t.exact[encoded]; ok {
		return canonical
	}
	best := ""
	bestLen := -1
	for _, rule := range t.prefixes {
		if strings.HasPrefix(encoded, rule.prefix) && len(rule.prefix) > bestLen {
			best = rule.canonical
			bestLen = len(rule.prefix)
		}
	}
	if bestLen >= 0 {
		return best
	}
	return encoded
}
