// Package generator derives MRCM attribute rules and domain templates from the
// active concept model. Generation is pure: functions read a Snapshot and return
// change records and diagnostics without touching storage.
package generator

import (
	"errors"
	"maps"
	"slices"

	"github.com/WestCoastInformatics/snowstorm-1/internal/ecl"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
)

// Snapshot is the indexed, canonicalized model both generators read.
// It is not modified after NewSnapshot returns and is safe for concurrent use.
type Snapshot struct {
	DomainsByID        map[string]*models.Domain
	AttributeToDomains map[string][]models.AttributeDomain
	DomainToAttributes map[string][]models.AttributeDomain
	AttributeToRanges  map[string][]models.AttributeRange
	Terms              models.ConceptTerms

	// range member ids whose stored constraint differs from its canonical form
	constraintChanged map[string]bool
}

// NewSnapshot indexes the model and canonicalizes every range constraint, so that
// rules and templates embed the same canonical text. Bindings are ordered by member id
// and ranges by member id; callers can therefore present the model in any order.
func NewSnapshot(mrcm *models.MRCM, terms models.ConceptTerms) (*Snapshot, []Diagnostic) {
	snap := &Snapshot{
		DomainsByID:        mrcm.DomainsByConceptID(),
		AttributeToDomains: mrcm.AttributeDomainsByAttribute(),
		DomainToAttributes: mrcm.AttributeDomainsByDomain(),
		AttributeToRanges:  make(map[string][]models.AttributeRange),
		Terms:              terms,
		constraintChanged:  make(map[string]bool),
	}
	if snap.Terms == nil {
		snap.Terms = models.ConceptTerms{}
	}
	for _, bindings := range snap.AttributeToDomains {
		slices.SortFunc(bindings, compareByMemberID)
	}
	for _, bindings := range snap.DomainToAttributes {
		slices.SortFunc(bindings, compareByMemberID)
	}

	var diagnostics []Diagnostic
	for attributeID, ranges := range mrcm.AttributeRangesByAttribute() {
		canonical := make([]models.AttributeRange, 0, len(ranges))
		for _, r := range ranges {
			text, err := ecl.Canonicalize(r.RangeConstraint)
			if err != nil {
				kind := KindMalformedConstraint
				if errors.Is(err, ecl.ErrUnsupported) {
					kind = KindUnsupportedConstraint
				}
				diagnostics = append(diagnostics, Diagnostic{
					Kind:      kind,
					MemberID:  r.ID,
					ConceptID: attributeID,
					Message:   err.Error(),
				})
			}
			if text != r.RangeConstraint {
				snap.constraintChanged[r.ID] = true
				r.RangeConstraint = text
			}
			canonical = append(canonical, r)
		}
		slices.SortFunc(canonical, compareRangesByMemberID)
		snap.AttributeToRanges[attributeID] = canonical
	}
	sortDiagnostics(diagnostics)
	return snap, diagnostics
}

// ConstraintChanged reports whether canonicalization altered the range's stored constraint.
func (s *Snapshot) ConstraintChanged(rangeMemberID string) bool {
	return s.constraintChanged[rangeMemberID]
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.SortedFunc(maps.Keys(m), ecl.CompareNullsFirst)
}
