package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
)

// GenerateDomainTemplates builds the precoordination and postcoordination templates of
// every domain and returns a change for each domain where either template differs
// from the stored one. An unresolvable or cyclic parent chain fails generation.
func GenerateDomainTemplates(snap *Snapshot) ([]models.DomainTemplateChange, []Diagnostic, error) {
	var (
		changes     []models.DomainTemplateChange
		diagnostics []Diagnostic
	)
	for _, domainID := range sortedKeys(snap.DomainsByID) {
		domain := snap.DomainsByID[domainID]
		parents, err := ParentDomainIDs(domain, snap.DomainsByID)
		if err != nil {
			return nil, nil, err
		}

		pre, preDiagnostics := domainTemplate(snap, domain, parents, models.ContentTypePrecoordinated)
		post, postDiagnostics := domainTemplate(snap, domain, parents, models.ContentTypePostcoordinated)
		diagnostics = append(diagnostics, preDiagnostics...)
		diagnostics = append(diagnostics, postDiagnostics...)

		if pre == domain.Template(models.ContentTypePrecoordinated) && post == domain.Template(models.ContentTypePostcoordinated) {
			continue
		}
		changes = append(changes, models.DomainTemplateChange{
			MemberID:         domain.ID,
			DomainID:         domainID,
			Precoordination:  pre,
			Postcoordination: post,
		})
	}
	sortDiagnostics(diagnostics)
	return changes, diagnostics, nil
}

// domainTemplate renders one coordination mode of a domain template:
//
//	[[+id(<proximal primitive>)]]: <refinement>, [[<card>]] { [[<inGroupCard>]] <attr> |<term>| = [[+id(<range>)]]},...
//
// Postcoordination uses [[+scg( in place of [[+id(.
func domainTemplate(snap *Snapshot, domain *models.Domain, parents []string, mode models.ContentType) (string, []Diagnostic) {
	slot := "[[+id("
	if mode == models.ContentTypePostcoordinated {
		slot = "[[+scg("
	}

	var b strings.Builder
	if strings.TrimSpace(domain.ProximalPrimitiveConstraint) != "" {
		b.WriteString(slot + domain.ProximalPrimitiveConstraint + ")]]:")
	}
	if domain.ProximalPrimitiveRefinement != "" {
		b.WriteString(" " + domain.ProximalPrimitiveRefinement + ", ")
	}

	var diagnostics []Diagnostic
	entries := 0
	for _, binding := range templateBindings(snap, domain, parents, mode) {
		attributeID := binding.ReferencedComponentID
		r, ok := firstDrivingRange(snap.AttributeToRanges[attributeID], mode)
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      KindNoMatchingRange,
				MemberID:  binding.ID,
				ConceptID: attributeID,
				Message: fmt.Sprintf("no mandatory %s range for attribute %s in domain %s",
					strings.ToLower(mode.String()), attributeID, domain.ReferencedComponentID),
			})
			continue
		}
		if entries > 0 {
			b.WriteString(",")
		}
		entries++

		b.WriteString(" [[" + binding.AttributeCardinality + "]] ")
		if binding.Grouped {
			b.WriteString("{ [[" + binding.AttributeInGroupCardinality + "]] ")
		}
		b.WriteString(attributeID + " |" + snap.Terms.Term(attributeID) + "| = " + slot + r.RangeConstraint + ")]]")
		if binding.Grouped {
			b.WriteString("}")
		}
	}
	return b.String(), diagnostics
}

// templateBindings collects the driving bindings of the domain's ancestors and the
// domain itself, ordered by attribute id. Bindings of one attribute keep ancestor order.
func templateBindings(snap *Snapshot, domain *models.Domain, parents []string, mode models.ContentType) []models.AttributeDomain {
	var bindings []models.AttributeDomain
	for _, domainID := range append(slices.Clone(parents), domain.ReferencedComponentID) {
		for _, binding := range snap.DomainToAttributes[domainID] {
			if binding.Drives(mode) {
				bindings = append(bindings, binding)
			}
		}
	}
	slices.SortStableFunc(bindings, compareBindingsByAttributeID)
	return bindings
}

func firstDrivingRange(ranges []models.AttributeRange, mode models.ContentType) (models.AttributeRange, bool) {
	for _, r := range ranges {
		if r.Drives(mode) {
			return r, true
		}
	}
	return models.AttributeRange{}, false
}
