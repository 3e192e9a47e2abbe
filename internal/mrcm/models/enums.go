package models

import "fmt"

// ContentType says which kind of content an MRCM rule applies to.
type ContentType int

const (
	ContentTypeAll ContentType = iota + 1
	ContentTypePrecoordinated
	ContentTypePostcoordinated
)

// Content type concept ids used in the MRCM reference sets.
const (
	ContentTypeAllID               = "723596005"
	ContentTypePrecoordinatedID    = "723594008"
	ContentTypeNewPrecoordinatedID = "723593002"
	ContentTypePostcoordinatedID   = "723595009"
)

// ParseContentType maps a content type concept id onto the closed set of content types.
// New precoordinated content is a subset of precoordinated content for template purposes.
func ParseContentType(conceptID string) (ContentType, error) {
	switch conceptID {
	case ContentTypeAllID:
		return ContentTypeAll, nil
	case ContentTypePrecoordinatedID, ContentTypeNewPrecoordinatedID:
		return ContentTypePrecoordinated, nil
	case ContentTypePostcoordinatedID:
		return ContentTypePostcoordinated, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", conceptID)
	}
}

// Covers reports whether a rule with this content type applies to content of the
// given type: ALL covers everything, otherwise the types must be equal.
func (c ContentType) Covers(target ContentType) bool {
	return c == ContentTypeAll || c == target
}

func (c ContentType) String() string {
	switch c {
	case ContentTypeAll:
		return "ALL"
	case ContentTypePrecoordinated:
		return "PRECOORDINATED"
	case ContentTypePostcoordinated:
		return "POSTCOORDINATED"
	default:
		return "UNKNOWN"
	}
}

// RuleStrength says whether an MRCM binding is mandatory or merely permitted.
type RuleStrength int

const (
	RuleStrengthMandatory RuleStrength = iota + 1
	RuleStrengthOptional
)

// Rule strength concept ids used in the MRCM reference sets.
const (
	RuleStrengthMandatoryID = "723597001"
	RuleStrengthOptionalID  = "723598006"
)

// ParseRuleStrength maps a rule strength concept id onto the closed set of rule strengths.
func ParseRuleStrength(conceptID string) (RuleStrength, error) {
	switch conceptID {
	case RuleStrengthMandatoryID:
		return RuleStrengthMandatory, nil
	case RuleStrengthOptionalID:
		return RuleStrengthOptional, nil
	default:
		return 0, fmt.Errorf("unknown rule strength %q", conceptID)
	}
}

func (r RuleStrength) String() string {
	switch r {
	case RuleStrengthMandatory:
		return "MANDATORY"
	case RuleStrengthOptional:
		return "OPTIONAL"
	default:
		return "UNKNOWN"
	}
}
