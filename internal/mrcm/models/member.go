package models

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Member is one version of a reference set member document on a branch.
//
// A version is visible from Start until End (exclusive); End is nil for the current
// version. InternalID identifies the version, MemberID the member across versions.
type Member struct {
	InternalID            string
	MemberID              string
	RefsetID              string
	ReferencedComponentID string
	ModuleID              string
	Active                bool
	Released              bool
	EffectiveTime         string
	ReleasedEffectiveTime string
	ReleaseHash           string
	AdditionalFields      map[string]string
	Path                  string
	Start                 time.Time
	End                   *time.Time
}

// Field returns an additional field value, or "" when absent.
func (m *Member) Field(name string) string {
	return m.AdditionalFields[name]
}

// SetField sets an additional field value.
func (m *Member) SetField(name, value string) {
	if m.AdditionalFields == nil {
		m.AdditionalFields = make(map[string]string)
	}
	m.AdditionalFields[name] = value
}

// Clone returns a deep copy of the member.
func (m *Member) Clone() *Member {
	c := *m
	c.AdditionalFields = maps.Clone(m.AdditionalFields)
	if m.End != nil {
		end := *m.End
		c.End = &end
	}
	return &c
}

// ContentHash hashes the release-relevant state of the member.
func (m *Member) ContentHash() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(strconv.FormatBool(m.Active))
	write(m.ModuleID)
	write(m.RefsetID)
	write(m.ReferencedComponentID)
	for _, key := range slices.Sorted(maps.Keys(m.AdditionalFields)) {
		write(key)
		write(m.AdditionalFields[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MarkReleased records the current state as the released state.
func (m *Member) MarkReleased(effectiveTime string) {
	m.Released = true
	m.EffectiveTime = effectiveTime
	m.ReleasedEffectiveTime = effectiveTime
	m.ReleaseHash = m.ContentHash()
}

// UpdateEffectiveTime restores the released effective time when the member is back to
// its released state and clears it when the member carries unpublished changes.
func (m *Member) UpdateEffectiveTime() {
	if m.Released && m.ReleaseHash == m.ContentHash() {
		m.EffectiveTime = m.ReleasedEffectiveTime
		return
	}
	m.EffectiveTime = ""
}

// ToDomain maps a domain refset member.
func (m *Member) ToDomain() Domain {
	return Domain{
		ID:                                m.MemberID,
		ReferencedComponentID:             m.ReferencedComponentID,
		ModuleID:                          m.ModuleID,
		ParentDomain:                      m.Field(FieldParentDomain),
		ProximalPrimitiveConstraint:       m.Field(FieldProximalPrimitiveConstraint),
		ProximalPrimitiveRefinement:       m.Field(FieldProximalPrimitiveRefinement),
		DomainConstraint:                  m.Field(FieldDomainConstraint),
		DomainTemplateForPrecoordination:  m.Field(FieldDomainTemplateForPrecoordination),
		DomainTemplateForPostcoordination: m.Field(FieldDomainTemplateForPostcoordination),
		GuideURL:                          m.Field(FieldGuideURL),
	}
}

// ToAttributeDomain maps an attribute domain refset member.
func (m *Member) ToAttributeDomain() (AttributeDomain, error) {
	strength, err := ParseRuleStrength(m.Field(FieldRuleStrengthID))
	if err != nil {
		return AttributeDomain{}, err
	}
	contentType, err := ParseContentType(m.Field(FieldContentTypeID))
	if err != nil {
		return AttributeDomain{}, err
	}
	return AttributeDomain{
		ID:                          m.MemberID,
		ReferencedComponentID:       m.ReferencedComponentID,
		ModuleID:                    m.ModuleID,
		DomainID:                    m.Field(FieldDomainID),
		Grouped:                     parseGrouped(m.Field(FieldGrouped)),
		AttributeCardinality:        m.Field(FieldAttributeCardinality),
		AttributeInGroupCardinality: m.Field(FieldAttributeInGroupCardinality),
		RuleStrength:                strength,
		ContentType:                 contentType,
	}, nil
}

// ToAttributeRange maps an attribute range refset member.
func (m *Member) ToAttributeRange() (AttributeRange, error) {
	strength, err := ParseRuleStrength(m.Field(FieldRuleStrengthID))
	if err != nil {
		return AttributeRange{}, err
	}
	contentType, err := ParseContentType(m.Field(FieldContentTypeID))
	if err != nil {
		return AttributeRange{}, err
	}
	return AttributeRange{
		ID:                    m.MemberID,
		ReferencedComponentID: m.ReferencedComponentID,
		ModuleID:              m.ModuleID,
		RangeConstraint:       m.Field(FieldRangeConstraint),
		AttributeRule:         m.Field(FieldAttributeRule),
		RuleStrength:          strength,
		ContentType:           contentType,
	}, nil
}

// grouped is stored as "1"/"0" in RF2 and as "true"/"false" by some authoring tools.
func parseGrouped(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true":
		return true
	default:
		return false
	}
}
