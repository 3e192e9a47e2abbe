package generator

import (
	"cmp"

	"github.com/WestCoastInformatics/snowstorm-1/internal/ecl"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
)

// Orderings used by generation. Every comparison treats an empty id as null and
// sorts it first; ties fall back to the member id so output never depends on load order.

func compareByMemberID(a, b models.AttributeDomain) int {
	return ecl.CompareNullsFirst(a.ID, b.ID)
}

func compareBindingsByDomainID(a, b models.AttributeDomain) int {
	return cmp.Or(
		ecl.CompareNullsFirst(a.DomainID, b.DomainID),
		ecl.CompareNullsFirst(a.ID, b.ID),
	)
}

// compareBindingsByAttributeID leaves bindings of the same attribute in place; callers
// sort stably over a slice already ordered by domain position.
func compareBindingsByAttributeID(a, b models.AttributeDomain) int {
	return ecl.CompareNullsFirst(a.ReferencedComponentID, b.ReferencedComponentID)
}

func compareRangesByMemberID(a, b models.AttributeRange) int {
	return ecl.CompareNullsFirst(a.ID, b.ID)
}
