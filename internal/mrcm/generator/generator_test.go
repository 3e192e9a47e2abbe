package generator

import (
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

// =============================================================================
// Generator Test Suite
// =============================================================================
// Rule and template text is compared byte for byte: stored artifacts are diffed as
// strings, so any whitespace drift shows up as a spurious change on every commit.

type GeneratorSuite struct {
	suite.Suite
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

const (
	findingID         = "404684003"
	findingConstraint = "<< 404684003 |Clinical finding (finding)|"
	associatedID      = "116676008"
)

func binding(memberID, attributeID, domainID string, grouped bool, card, inGroup string, contentType models.ContentType) models.AttributeDomain {
	return models.AttributeDomain{
		ID:                          memberID,
		ReferencedComponentID:       attributeID,
		DomainID:                    domainID,
		Grouped:                     grouped,
		AttributeCardinality:        card,
		AttributeInGroupCardinality: inGroup,
		RuleStrength:                models.RuleStrengthMandatory,
		ContentType:                 contentType,
	}
}

func attributeRange(memberID, attributeID, constraint string, contentType models.ContentType) models.AttributeRange {
	return models.AttributeRange{
		ID:                    memberID,
		ReferencedComponentID: attributeID,
		RangeConstraint:       constraint,
		RuleStrength:          models.RuleStrengthMandatory,
		ContentType:           contentType,
	}
}

// findingModel is a single clinical finding domain with one grouped attribute.
func findingModel() *models.MRCM {
	return &models.MRCM{
		Domains: []models.Domain{{
			ID:                          "domain-member",
			ReferencedComponentID:       findingID,
			DomainConstraint:            findingConstraint,
			ProximalPrimitiveConstraint: findingConstraint,
		}},
		AttributeDomains: []models.AttributeDomain{
			binding("ad-1", associatedID, findingID, true, "0..1", "1..1", models.ContentTypeAll),
		},
		AttributeRanges: []models.AttributeRange{
			attributeRange("range-1", associatedID, "<< 49755003 |B| OR << 128927009 |A|", models.ContentTypeAll),
		},
	}
}

var findingTerms = models.ConceptTerms{associatedID: "Attr", findingID: "Clinical finding (finding)"}

const (
	findingRule = "<< 404684003 |Clinical finding (finding)|: [0..1] { [1..1] 116676008 |Attr| = " +
		"(<< 128927009 |A| OR << 49755003 |B|) }"
	findingPrecoordination = "[[+id(<< 404684003 |Clinical finding (finding)|)]]: [[0..1]] { [[1..1]] 116676008 |Attr| = " +
		"[[+id(<< 128927009 |A| OR << 49755003 |B|)]]}"
	findingPostcoordination = "[[+scg(<< 404684003 |Clinical finding (finding)|)]]: [[0..1]] { [[1..1]] 116676008 |Attr| = " +
		"[[+scg(<< 128927009 |A| OR << 49755003 |B|)]]}"
)

// =============================================================================
// End-to-End Scenario
// =============================================================================

func (s *GeneratorSuite) TestFindingScenario() {
	snap, diagnostics := NewSnapshot(findingModel(), findingTerms)
	s.Empty(diagnostics)

	s.Run("range constraint is canonicalized before embedding", func() {
		s.True(snap.ConstraintChanged("range-1"))
		s.Equal("<< 128927009 |A| OR << 49755003 |B|", snap.AttributeToRanges[associatedID][0].RangeConstraint)
	})

	s.Run("attribute rule", func() {
		changes, diagnostics := GenerateAttributeRules(snap)
		s.Empty(diagnostics)
		s.Require().Len(changes, 1)
		s.Equal(models.AttributeRuleChange{
			MemberID:        "range-1",
			AttributeID:     associatedID,
			AttributeRule:   findingRule,
			RangeConstraint: "<< 128927009 |A| OR << 49755003 |B|",
		}, changes[0])
	})

	s.Run("domain templates", func() {
		changes, diagnostics, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Empty(diagnostics)
		s.Require().Len(changes, 1)
		s.Equal("domain-member", changes[0].MemberID)
		s.Equal(findingPrecoordination, changes[0].Precoordination)
		s.Equal(findingPostcoordination, changes[0].Postcoordination)
	})
}

func (s *GeneratorSuite) TestRegenerationIsIdempotent() {
	model := findingModel()
	model.AttributeRanges[0].RangeConstraint = "<< 128927009 |A| OR << 49755003 |B|"
	model.AttributeRanges[0].AttributeRule = findingRule
	model.Domains[0].DomainTemplateForPrecoordination = findingPrecoordination
	model.Domains[0].DomainTemplateForPostcoordination = findingPostcoordination

	snap, _ := NewSnapshot(model, findingTerms)
	rules, _ := GenerateAttributeRules(snap)
	templates, _, err := GenerateDomainTemplates(snap)
	s.Require().NoError(err)
	s.Empty(rules)
	s.Empty(templates)
}

func (s *GeneratorSuite) TestOutputIsIndependentOfInputOrder() {
	build := func(reverse bool) *models.MRCM {
		model := &models.MRCM{
			Domains: []models.Domain{
				{ID: "d-1", ReferencedComponentID: "1000", DomainConstraint: "<< 1000 |One|"},
				{ID: "d-2", ReferencedComponentID: "2000", DomainConstraint: "<< 2000 |Two|"},
			},
			AttributeDomains: []models.AttributeDomain{
				binding("ad-1", "42", "1000", false, "0..*", "", models.ContentTypeAll),
				binding("ad-2", "42", "2000", true, "0..*", "0..1", models.ContentTypeAll),
				binding("ad-3", "7", "2000", false, "1..1", "", models.ContentTypeAll),
			},
			AttributeRanges: []models.AttributeRange{
				attributeRange("r-1", "42", "< 9 |Nine| OR < 8 |Eight|", models.ContentTypeAll),
				attributeRange("r-2", "7", "< 3 |Three|", models.ContentTypeAll),
			},
		}
		if reverse {
			slices.Reverse(model.Domains)
			slices.Reverse(model.AttributeDomains)
			slices.Reverse(model.AttributeRanges)
		}
		return model
	}
	terms := models.ConceptTerms{"42": "Answer", "7": "Seven"}

	forward, _ := NewSnapshot(build(false), terms)
	backward, _ := NewSnapshot(build(true), terms)

	forwardRules, _ := GenerateAttributeRules(forward)
	backwardRules, _ := GenerateAttributeRules(backward)
	s.Equal(forwardRules, backwardRules)

	forwardTemplates, _, err := GenerateDomainTemplates(forward)
	s.Require().NoError(err)
	backwardTemplates, _, err := GenerateDomainTemplates(backward)
	s.Require().NoError(err)
	s.Equal(forwardTemplates, backwardTemplates)
}

// =============================================================================
// Attribute Rule Tests
// =============================================================================

func (s *GeneratorSuite) TestGenerateAttributeRules() {
	s.Run("several domains form a parenthesised disjunction ordered by domain id", func() {
		model := &models.MRCM{
			Domains: []models.Domain{
				{ID: "d-3", ReferencedComponentID: "3000", DomainConstraint: "<< 3000 |Three|"},
				{ID: "d-2", ReferencedComponentID: "2000", DomainConstraint: "<< 2000 |Two|: 363698007 = *"},
				{ID: "d-1", ReferencedComponentID: "1000", DomainConstraint: "<< 1000 |One|"},
			},
			AttributeDomains: []models.AttributeDomain{
				binding("ad-3", "42", "3000", false, "0..1", "", models.ContentTypeAll),
				binding("ad-2", "42", "2000", false, "0..*", "", models.ContentTypeAll),
				binding("ad-1", "42", "1000", false, "0..*", "", models.ContentTypeAll),
			},
			AttributeRanges: []models.AttributeRange{
				attributeRange("r-1", "42", "<< 5 |Five|", models.ContentTypeAll),
			},
		}
		snap, _ := NewSnapshot(model, models.ConceptTerms{"42": "Answer"})

		changes, diagnostics := GenerateAttributeRules(snap)
		s.Empty(diagnostics)
		s.Require().Len(changes, 1)
		s.Equal("((<< 1000 |One|: [0..*] 42 |Answer| = << 5 |Five|) OR "+
			"(<< 2000 |Two|: 363698007 = *, [0..*] 42 |Answer| = << 5 |Five|)) OR "+
			"(<< 3000 |Three|: [0..1] 42 |Answer| = << 5 |Five|)", changes[0].AttributeRule)
		s.Equal("<< 5 |Five|", changes[0].RangeConstraint)
	})

	s.Run("optional and non-matching content type bindings are ignored", func() {
		optional := binding("ad-2", "42", "2000", false, "0..*", "", models.ContentTypeAll)
		optional.RuleStrength = models.RuleStrengthOptional
		model := &models.MRCM{
			Domains: []models.Domain{
				{ID: "d-1", ReferencedComponentID: "1000", DomainConstraint: "<< 1000 |One|"},
				{ID: "d-2", ReferencedComponentID: "2000", DomainConstraint: "<< 2000 |Two|"},
				{ID: "d-3", ReferencedComponentID: "3000", DomainConstraint: "<< 3000 |Three|"},
			},
			AttributeDomains: []models.AttributeDomain{
				binding("ad-1", "42", "1000", false, "0..*", "", models.ContentTypePrecoordinated),
				optional,
				binding("ad-3", "42", "3000", false, "0..1", "", models.ContentTypePostcoordinated),
			},
			AttributeRanges: []models.AttributeRange{
				attributeRange("r-1", "42", "<< 5 |Five|", models.ContentTypePostcoordinated),
			},
		}
		snap, _ := NewSnapshot(model, models.ConceptTerms{"42": "Answer"})

		changes, _ := GenerateAttributeRules(snap)
		s.Require().Len(changes, 1)
		s.Equal("<< 3000 |Three|: [0..1] 42 |Answer| = << 5 |Five|", changes[0].AttributeRule)
	})

	s.Run("range without a qualifying binding yields no change", func() {
		model := findingModel()
		model.AttributeDomains[0].ContentType = models.ContentTypePrecoordinated
		model.AttributeRanges[0].ContentType = models.ContentTypePostcoordinated
		snap, _ := NewSnapshot(model, findingTerms)

		changes, _ := GenerateAttributeRules(snap)
		s.Empty(changes)
	})

	s.Run("attribute without ranges is reported and skipped", func() {
		model := findingModel()
		model.AttributeRanges = nil
		snap, _ := NewSnapshot(model, findingTerms)

		changes, diagnostics := GenerateAttributeRules(snap)
		s.Empty(changes)
		s.Require().Len(diagnostics, 1)
		s.Equal(KindNoRange, diagnostics[0].Kind)
		s.Equal(associatedID, diagnostics[0].ConceptID)
	})

	s.Run("canonicalized constraint alone produces a change", func() {
		model := findingModel()
		model.AttributeRanges[0].AttributeRule = findingRule
		snap, _ := NewSnapshot(model, findingTerms)

		changes, _ := GenerateAttributeRules(snap)
		s.Require().Len(changes, 1)
		s.Equal(findingRule, changes[0].AttributeRule)
	})

	s.Run("malformed constraint is kept verbatim with a diagnostic", func() {
		model := findingModel()
		model.AttributeRanges[0].RangeConstraint = "<< 49755003 |B| OR"
		snap, diagnostics := NewSnapshot(model, findingTerms)
		s.Require().Len(diagnostics, 1)
		s.Equal(KindMalformedConstraint, diagnostics[0].Kind)
		s.Equal("range-1", diagnostics[0].MemberID)

		changes, _ := GenerateAttributeRules(snap)
		s.Require().Len(changes, 1)
		s.Equal("<< 49755003 |B| OR", changes[0].RangeConstraint)
		s.Contains(changes[0].AttributeRule, "= (<< 49755003 |B| OR) }")
	})

	s.Run("unsupported constraint syntax is kept verbatim at info level", func() {
		model := findingModel()
		model.AttributeRanges[0].RangeConstraint = "<< 49755003 |B| . 363698007"
		snap, diagnostics := NewSnapshot(model, findingTerms)
		s.Require().Len(diagnostics, 1)
		s.Equal(KindUnsupportedConstraint, diagnostics[0].Kind)
		s.Equal(slog.LevelInfo, diagnostics[0].Kind.Level())
		s.Equal(slog.LevelWarn, KindMalformedConstraint.Level())

		changes, _ := GenerateAttributeRules(snap)
		s.Require().Len(changes, 1)
		s.Equal("<< 49755003 |B| . 363698007", changes[0].RangeConstraint)
	})

	s.Run("refined range constraint parses without a diagnostic", func() {
		model := findingModel()
		model.AttributeRanges[0].RangeConstraint = "<< 49755003 |B|: 363698007 = *"
		_, diagnostics := NewSnapshot(model, findingTerms)
		s.Empty(diagnostics)
	})

	s.Run("binding to an unknown domain is reported and skipped", func() {
		model := findingModel()
		model.AttributeDomains = append(model.AttributeDomains,
			binding("ad-9", associatedID, "999", false, "0..*", "", models.ContentTypeAll))
		snap, _ := NewSnapshot(model, findingTerms)

		changes, diagnostics := GenerateAttributeRules(snap)
		s.Require().Len(changes, 1)
		s.Equal(findingRule, changes[0].AttributeRule)
		s.Require().Len(diagnostics, 1)
		s.Equal(KindMissingDomain, diagnostics[0].Kind)
	})
}

// =============================================================================
// Domain Template Tests
// =============================================================================

func inheritanceModel() *models.MRCM {
	return &models.MRCM{
		Domains: []models.Domain{
			{ID: "d-parent", ReferencedComponentID: "100", DomainConstraint: "<< 100 |Parent|"},
			{ID: "d-child", ReferencedComponentID: "200", DomainConstraint: "<< 200 |Child|", ParentDomain: "100 |Parent|"},
		},
		AttributeDomains: []models.AttributeDomain{
			binding("ad-30", "30", "100", false, "0..*", "", models.ContentTypeAll),
			binding("ad-20", "20", "200", false, "0..1", "", models.ContentTypeAll),
			binding("ad-40", "40", "200", false, "0..1", "", models.ContentTypePostcoordinated),
		},
		AttributeRanges: []models.AttributeRange{
			attributeRange("r-20", "20", "< 2 |two|", models.ContentTypeAll),
			attributeRange("r-30", "30", "< 3 |three|", models.ContentTypeAll),
			attributeRange("r-40", "40", "< 4 |four|", models.ContentTypeAll),
		},
	}
}

var inheritanceTerms = models.ConceptTerms{"20": "Twenty", "30": "Thirty", "40": "Forty"}

func (s *GeneratorSuite) TestGenerateDomainTemplates() {
	s.Run("child inherits parent attributes ordered by attribute id", func() {
		snap, _ := NewSnapshot(inheritanceModel(), inheritanceTerms)

		changes, diagnostics, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Empty(diagnostics)
		s.Require().Len(changes, 2)

		s.Equal("100", changes[0].DomainID)
		s.Equal(" [[0..*]] 30 |Thirty| = [[+id(< 3 |three|)]]", changes[0].Precoordination)

		child := changes[1]
		s.Equal("200", child.DomainID)
		s.Equal(" [[0..1]] 20 |Twenty| = [[+id(< 2 |two|)]], [[0..*]] 30 |Thirty| = [[+id(< 3 |three|)]]",
			child.Precoordination)
		s.Equal(" [[0..1]] 20 |Twenty| = [[+scg(< 2 |two|)]], [[0..*]] 30 |Thirty| = [[+scg(< 3 |three|)]],"+
			" [[0..1]] 40 |Forty| = [[+scg(< 4 |four|)]]", child.Postcoordination)
	})

	s.Run("proximal primitive refinement follows the constraint", func() {
		model := findingModel()
		model.Domains[0].ProximalPrimitiveRefinement = "363698007 |Finding site| = *"
		snap, _ := NewSnapshot(model, findingTerms)

		changes, _, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Require().Len(changes, 1)
		s.Equal("[[+id(<< 404684003 |Clinical finding (finding)|)]]: 363698007 |Finding site| = *,  [[0..1]] "+
			"{ [[1..1]] 116676008 |Attr| = [[+id(<< 128927009 |A| OR << 49755003 |B|)]]}", changes[0].Precoordination)
	})

	s.Run("attribute without a matching range is skipped without a dangling separator", func() {
		model := inheritanceModel()
		model.AttributeRanges[0].ContentType = models.ContentTypePostcoordinated
		snap, _ := NewSnapshot(model, inheritanceTerms)

		changes, diagnostics, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Require().Len(changes, 2)
		s.Equal(" [[0..*]] 30 |Thirty| = [[+id(< 3 |three|)]]", changes[1].Precoordination)
		s.Require().Len(diagnostics, 1)
		s.Equal(KindNoMatchingRange, diagnostics[0].Kind)
		s.Equal("20", diagnostics[0].ConceptID)
	})

	s.Run("first driving range wins by member id", func() {
		model := inheritanceModel()
		model.AttributeRanges = append(model.AttributeRanges,
			attributeRange("r-19", "20", "< 1 |one|", models.ContentTypeAll))
		snap, _ := NewSnapshot(model, inheritanceTerms)

		changes, _, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Contains(changes[1].Precoordination, "20 |Twenty| = [[+id(< 1 |one|)]]")
	})

	s.Run("unchanged templates produce no change", func() {
		model := inheritanceModel()
		model.Domains[0].DomainTemplateForPrecoordination = " [[0..*]] 30 |Thirty| = [[+id(< 3 |three|)]]"
		model.Domains[0].DomainTemplateForPostcoordination = " [[0..*]] 30 |Thirty| = [[+scg(< 3 |three|)]]"
		snap, _ := NewSnapshot(model, inheritanceTerms)

		changes, _, err := GenerateDomainTemplates(snap)
		s.Require().NoError(err)
		s.Require().Len(changes, 1)
		s.Equal("200", changes[0].DomainID)
	})

	s.Run("unresolvable parent aborts generation", func() {
		model := inheritanceModel()
		model.Domains[1].ParentDomain = "999 |Missing|"
		snap, _ := NewSnapshot(model, inheritanceTerms)

		_, _, err := GenerateDomainTemplates(snap)
		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrInvalidState))
		s.Contains(err.Error(), "999")
	})

	s.Run("parent cycle aborts generation", func() {
		model := inheritanceModel()
		model.Domains[0].ParentDomain = "200 |Child|"
		snap, _ := NewSnapshot(model, inheritanceTerms)

		_, _, err := GenerateDomainTemplates(snap)
		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrInvalidState))
		s.Contains(err.Error(), "cycle")
	})
}

// =============================================================================
// Parent Chain Tests
// =============================================================================

func (s *GeneratorSuite) TestParentDomainIDs() {
	domains := map[string]*models.Domain{
		"1": {ReferencedComponentID: "1"},
		"2": {ReferencedComponentID: "2", ParentDomain: "1 |One|"},
		"3": {ReferencedComponentID: "3", ParentDomain: "2 |Two|"},
	}

	s.Run("root has no parents", func() {
		parents, err := ParentDomainIDs(domains["1"], domains)
		s.NoError(err)
		s.Empty(parents)
	})

	s.Run("ancestors are listed nearest first", func() {
		parents, err := ParentDomainIDs(domains["3"], domains)
		s.NoError(err)
		s.Equal([]string{"2", "1"}, parents)
	})

	s.Run("self reference is a cycle", func() {
		self := &models.Domain{ReferencedComponentID: "4", ParentDomain: "4 |Four|"}
		_, err := ParentDomainIDs(self, map[string]*models.Domain{"4": self})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}
