// Package loader reads the active MRCM and concept display terms from a branch view.
package loader

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/generator"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/ports"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
)

type Loader struct {
	members  ports.MemberStore
	concepts ports.ConceptStore
	logger   *slog.Logger
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func New(members ports.MemberStore, concepts ports.ConceptStore, opts ...Option) (*Loader, error) {
	if members == nil {
		return nil, errors.New("member store is required")
	}
	if concepts == nil {
		return nil, errors.New("concept store is required")
	}
	l := &Loader{members: members, concepts: concepts, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadActiveModel maps the active members of the three MRCM reference sets visible in
// view. Bindings with an unknown rule strength or content type are skipped and reported.
// Every slice is ordered by member id.
func (l *Loader) LoadActiveModel(ctx context.Context, view vmodels.View) (*models.MRCM, []generator.Diagnostic, error) {
	members, err := l.members.FindActiveByRefsets(ctx, view, models.RefsetIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load MRCM members on %s: %w", view.Path, err)
	}

	mrcm := &models.MRCM{}
	var diagnostics []generator.Diagnostic
	invalid := func(m *models.Member, err error) {
		diagnostics = append(diagnostics, generator.Diagnostic{
			Kind:      generator.KindInvalidMember,
			MemberID:  m.MemberID,
			ConceptID: m.ReferencedComponentID,
			Message:   err.Error(),
		})
	}
	for _, m := range members {
		switch m.RefsetID {
		case models.DomainRefsetID:
			mrcm.Domains = append(mrcm.Domains, m.ToDomain())
		case models.AttributeDomainRefsetID:
			binding, err := m.ToAttributeDomain()
			if err != nil {
				invalid(m, err)
				continue
			}
			mrcm.AttributeDomains = append(mrcm.AttributeDomains, binding)
		case models.AttributeRangeRefsetID:
			r, err := m.ToAttributeRange()
			if err != nil {
				invalid(m, err)
				continue
			}
			mrcm.AttributeRanges = append(mrcm.AttributeRanges, r)
		}
	}
	slices.SortFunc(mrcm.Domains, func(a, b models.Domain) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(mrcm.AttributeDomains, func(a, b models.AttributeDomain) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(mrcm.AttributeRanges, func(a, b models.AttributeRange) int { return cmp.Compare(a.ID, b.ID) })

	l.logger.DebugContext(ctx, "MRCM loaded",
		"branch", view.Path,
		"domains", len(mrcm.Domains),
		"attribute_domains", len(mrcm.AttributeDomains),
		"attribute_ranges", len(mrcm.AttributeRanges),
	)
	return mrcm, diagnostics, nil
}

// FindConceptTerms returns the fully specified name of each domain concept and the
// preferred term of each attribute concept.
func (l *Loader) FindConceptTerms(ctx context.Context, view vmodels.View, domainIDs, attributeIDs []string) (models.ConceptTerms, error) {
	ids := make([]string, 0, len(domainIDs)+len(attributeIDs))
	ids = append(ids, domainIDs...)
	ids = append(ids, attributeIDs...)
	terms, err := l.concepts.FindTerms(ctx, view, ids)
	if err != nil {
		return nil, fmt.Errorf("find concept terms on %s: %w", view.Path, err)
	}
	return models.BuildConceptTerms(terms, domainIDs, attributeIDs), nil
}
