// Package models holds the MRCM component model: domains, attribute domains and
// attribute ranges as read from their reference sets, the versioned member documents
// they are stored in, and the change records produced by regeneration.
package models

import "strings"

// Reference set concept ids of the three MRCM reference sets.
const (
	DomainRefsetID          = "723560006"
	AttributeDomainRefsetID = "723604009"
	AttributeRangeRefsetID  = "723592007"
)

// RefsetIDs lists the MRCM reference sets in load order.
var RefsetIDs = []string{DomainRefsetID, AttributeDomainRefsetID, AttributeRangeRefsetID}

// Additional field names used by the MRCM reference sets.
const (
	FieldDomainConstraint                  = "domainConstraint"
	FieldParentDomain                      = "parentDomain"
	FieldProximalPrimitiveConstraint       = "proximalPrimitiveConstraint"
	FieldProximalPrimitiveRefinement       = "proximalPrimitiveRefinement"
	FieldDomainTemplateForPrecoordination  = "domainTemplateForPrecoordination"
	FieldDomainTemplateForPostcoordination = "domainTemplateForPostcoordination"
	FieldGuideURL                          = "guideURL"
	FieldDomainID                          = "domainId"
	FieldGrouped                           = "grouped"
	FieldAttributeCardinality              = "attributeCardinality"
	FieldAttributeInGroupCardinality       = "attributeInGroupCardinality"
	FieldRuleStrengthID                    = "ruleStrengthId"
	FieldContentTypeID                     = "contentTypeId"
	FieldRangeConstraint                   = "rangeConstraint"
	FieldAttributeRule                     = "attributeRule"
)

// Domain is a clinical domain and its derived templates.
type Domain struct {
	ID                                string
	ReferencedComponentID             string
	ModuleID                          string
	ParentDomain                      string
	ProximalPrimitiveConstraint       string
	ProximalPrimitiveRefinement       string
	DomainConstraint                  string
	DomainTemplateForPrecoordination  string
	DomainTemplateForPostcoordination string
	GuideURL                          string
}

// ParentDomainID extracts the concept id from a parent reference such as
// "404684003 |Clinical finding (finding)|". A reference without a term is used whole.
func (d *Domain) ParentDomainID() string {
	parent := strings.TrimSpace(d.ParentDomain)
	if idx := strings.Index(parent, "|"); idx >= 0 {
		parent = parent[:idx]
	}
	return strings.TrimSpace(parent)
}

// Template returns the stored template for the given coordination mode.
func (d *Domain) Template(mode ContentType) string {
	if mode == ContentTypePostcoordinated {
		return d.DomainTemplateForPostcoordination
	}
	return d.DomainTemplateForPrecoordination
}

// AttributeDomain binds an attribute to a domain.
type AttributeDomain struct {
	ID                          string
	ReferencedComponentID       string
	ModuleID                    string
	DomainID                    string
	Grouped                     bool
	AttributeCardinality        string
	AttributeInGroupCardinality string
	RuleStrength                RuleStrength
	ContentType                 ContentType
}

// Drives reports whether the binding takes part in generation for the given mode:
// it must be mandatory and its content type must cover the mode.
func (a *AttributeDomain) Drives(mode ContentType) bool {
	return a.RuleStrength == RuleStrengthMandatory && a.ContentType.Covers(mode)
}

// AttributeRange is the permitted value constraint of an attribute.
type AttributeRange struct {
	ID                    string
	ReferencedComponentID string
	ModuleID              string
	RangeConstraint       string
	AttributeRule         string
	RuleStrength          RuleStrength
	ContentType           ContentType
}

// Drives reports whether the range is mandatory and applies to the given mode.
func (r *AttributeRange) Drives(mode ContentType) bool {
	return r.RuleStrength == RuleStrengthMandatory && r.ContentType.Covers(mode)
}

// MRCM is the active concept model on a branch at one point in time.
type MRCM struct {
	Domains          []Domain
	AttributeDomains []AttributeDomain
	AttributeRanges  []AttributeRange
}

// DomainsByConceptID indexes domains by their referenced concept id.
func (m *MRCM) DomainsByConceptID() map[string]*Domain {
	out := make(map[string]*Domain, len(m.Domains))
	for i := range m.Domains {
		out[m.Domains[i].ReferencedComponentID] = &m.Domains[i]
	}
	return out
}

// AttributeDomainsByAttribute groups attribute domains by attribute id.
func (m *MRCM) AttributeDomainsByAttribute() map[string][]AttributeDomain {
	out := make(map[string][]AttributeDomain)
	for _, ad := range m.AttributeDomains {
		out[ad.ReferencedComponentID] = append(out[ad.ReferencedComponentID], ad)
	}
	return out
}

// AttributeDomainsByDomain groups attribute domains by domain id.
func (m *MRCM) AttributeDomainsByDomain() map[string][]AttributeDomain {
	out := make(map[string][]AttributeDomain)
	for _, ad := range m.AttributeDomains {
		out[ad.DomainID] = append(out[ad.DomainID], ad)
	}
	return out
}

// AttributeRangesByAttribute groups attribute ranges by attribute id.
func (m *MRCM) AttributeRangesByAttribute() map[string][]AttributeRange {
	out := make(map[string][]AttributeRange)
	for _, r := range m.AttributeRanges {
		out[r.ReferencedComponentID] = append(out[r.ReferencedComponentID], r)
	}
	return out
}

// DomainConceptIDs returns the concept ids used as domains, both the domains themselves
// and the domain side of every attribute binding.
func (m *MRCM) DomainConceptIDs() []string {
	ids := make([]string, 0, len(m.Domains)+len(m.AttributeDomains))
	for _, d := range m.Domains {
		ids = append(ids, d.ReferencedComponentID)
	}
	for _, ad := range m.AttributeDomains {
		ids = append(ids, ad.DomainID)
	}
	return ids
}

// AttributeConceptIDs returns the attribute concept ids of all bindings and ranges.
func (m *MRCM) AttributeConceptIDs() []string {
	ids := make([]string, 0, len(m.AttributeDomains)+len(m.AttributeRanges))
	for _, ad := range m.AttributeDomains {
		ids = append(ids, ad.ReferencedComponentID)
	}
	for _, r := range m.AttributeRanges {
		ids = append(ids, r.ReferencedComponentID)
	}
	return ids
}
