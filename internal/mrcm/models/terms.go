package models

// TermSet holds the display terms of one concept.
type TermSet struct {
	FSN string
	PT  string
}

// ConceptTerms maps concept ids onto the single display term generation uses for them.
type ConceptTerms map[string]string

// Term returns the display term of a concept, or "" when unknown.
func (c ConceptTerms) Term(conceptID string) string {
	return c[conceptID]
}

// BuildConceptTerms picks the fully specified name for domain concepts and the preferred
// term for attribute concepts. An id that is both keeps its domain term.
func BuildConceptTerms(terms map[string]TermSet, domainIDs, attributeIDs []string) ConceptTerms {
	out := make(ConceptTerms, len(domainIDs)+len(attributeIDs))
	for _, id := range attributeIDs {
		if ts, ok := terms[id]; ok {
			out[id] = ts.PT
		}
	}
	for _, id := range domainIDs {
		if ts, ok := terms[id]; ok {
			out[id] = ts.FSN
		}
	}
	return out
}
