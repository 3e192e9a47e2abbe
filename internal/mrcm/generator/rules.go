package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
)

// GenerateAttributeRules builds the attribute rule of every range whose attribute is
// bound to at least one domain, and returns a change for each range whose rule text
// differs from the stored rule or whose constraint was canonicalized.
//
// A rule joins one clause per mandatory binding whose content type covers the range:
//
//	<domainConstraint>: [<card>] { [<inGroupCard>] <attr> |<term>| = (<range>) }
//
// Several qualifying domains form a parenthesised disjunction of clauses.
func GenerateAttributeRules(snap *Snapshot) ([]models.AttributeRuleChange, []Diagnostic) {
	var (
		changes     []models.AttributeRuleChange
		diagnostics []Diagnostic
	)
	for _, attributeID := range sortedKeys(snap.AttributeToDomains) {
		ranges, ok := snap.AttributeToRanges[attributeID]
		if !ok || len(ranges) == 0 {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      KindNoRange,
				ConceptID: attributeID,
				Message:   fmt.Sprintf("no attribute ranges defined for attribute %s", attributeID),
			})
			continue
		}

		bindings := slices.Clone(snap.AttributeToDomains[attributeID])
		slices.SortFunc(bindings, compareBindingsByDomainID)

		for _, r := range ranges {
			rule, ruleDiagnostics := attributeRule(snap, attributeID, r, bindings)
			diagnostics = append(diagnostics, ruleDiagnostics...)
			if rule == "" {
				continue
			}
			if rule == r.AttributeRule && !snap.ConstraintChanged(r.ID) {
				continue
			}
			changes = append(changes, models.AttributeRuleChange{
				MemberID:        r.ID,
				AttributeID:     attributeID,
				AttributeRule:   rule,
				RangeConstraint: r.RangeConstraint,
			})
		}
	}
	sortDiagnostics(diagnostics)
	return changes, diagnostics
}

// attributeRule returns "" when no binding qualifies for the range.
func attributeRule(snap *Snapshot, attributeID string, r models.AttributeRange, bindings []models.AttributeDomain) (string, []Diagnostic) {
	var (
		rule        string
		clauses     int
		diagnostics []Diagnostic
	)
	for _, binding := range bindings {
		if binding.RuleStrength != models.RuleStrengthMandatory || !binding.ContentType.Covers(r.ContentType) {
			continue
		}
		domain, ok := snap.DomainsByID[binding.DomainID]
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      KindMissingDomain,
				MemberID:  binding.ID,
				ConceptID: binding.DomainID,
				Message:   fmt.Sprintf("attribute %s is bound to unknown domain %s", attributeID, binding.DomainID),
			})
			continue
		}
		clause := ruleClause(domain.DomainConstraint, binding, attributeID, snap.Terms.Term(attributeID), r.RangeConstraint)
		if clauses == 0 {
			rule = clause
		} else {
			rule = "(" + rule + ") OR (" + clause + ")"
		}
		clauses++
	}
	return rule, diagnostics
}

func ruleClause(domainConstraint string, binding models.AttributeDomain, attributeID, term, rangeConstraint string) string {
	var b strings.Builder
	b.WriteString(domainConstraint)
	if strings.Contains(domainConstraint, ":") {
		b.WriteString(",")
	} else {
		b.WriteString(":")
	}
	b.WriteString(" [" + binding.AttributeCardinality + "]")
	if binding.Grouped {
		b.WriteString(" { [" + binding.AttributeInGroupCardinality + "]")
	}
	b.WriteString(" " + attributeID + " |" + term + "| = ")
	if strings.Contains(rangeConstraint, "OR") {
		b.WriteString("(" + rangeConstraint + ")")
	} else {
		b.WriteString(rangeConstraint)
	}
	if binding.Grouped {
		b.WriteString(" }")
	}
	return b.String()
}
