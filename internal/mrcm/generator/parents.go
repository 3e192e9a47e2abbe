package generator

import (
	"fmt"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

// ParentDomainIDs walks the parent chain of a domain and returns the ancestor domain
// ids nearest first. A parent that is not in the model, or a chain that returns to a
// domain already visited, makes the model inconsistent and fails with ErrInvalidState.
func ParentDomainIDs(domain *models.Domain, domainsByID map[string]*models.Domain) ([]string, error) {
	var parents []string
	visited := map[string]bool{domain.ReferencedComponentID: true}
	for current := domain; current.ParentDomainID() != ""; {
		parentID := current.ParentDomainID()
		parent, ok := domainsByID[parentID]
		if !ok {
			return nil, fmt.Errorf("%w: no domain found for parent %s of domain %s",
				sentinel.ErrInvalidState, parentID, current.ReferencedComponentID)
		}
		if visited[parentID] {
			return nil, fmt.Errorf("%w: parent domain cycle at %s starting from domain %s",
				sentinel.ErrInvalidState, parentID, domain.ReferencedComponentID)
		}
		visited[parentID] = true
		parents = append(parents, parent.ReferencedComponentID)
		current = parent
	}
	return parents, nil
}
