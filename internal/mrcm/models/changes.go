package models

// AttributeRuleChange is a regenerated attribute rule for one attribute range member.
// RangeConstraint carries the canonical constraint, which may differ from the stored one.
type AttributeRuleChange struct {
	MemberID        string `json:"member_id"`
	AttributeID     string `json:"attribute_id"`
	AttributeRule   string `json:"attribute_rule"`
	RangeConstraint string `json:"range_constraint"`
}

// DomainTemplateChange is a regenerated pair of templates for one domain member.
type DomainTemplateChange struct {
	MemberID         string `json:"member_id"`
	DomainID         string `json:"domain_id"`
	Precoordination  string `json:"precoordination"`
	Postcoordination string `json:"postcoordination"`
}

// ChangeSet is the output of one regeneration run.
type ChangeSet struct {
	AttributeRules  []AttributeRuleChange  `json:"attribute_rules"`
	DomainTemplates []DomainTemplateChange `json:"domain_templates"`
}

// Empty reports whether the change set has nothing to persist.
func (c *ChangeSet) Empty() bool {
	return len(c.AttributeRules) == 0 && len(c.DomainTemplates) == 0
}

// Size is the number of member documents the change set touches.
func (c *ChangeSet) Size() int {
	return len(c.AttributeRules) + len(c.DomainTemplates)
}
