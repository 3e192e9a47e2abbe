// Package concept looks up concept display terms per branch.
package concept

import (
	"context"
	"maps"
	"sync"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
)

// InMemoryStore keeps the current terms of each branch. Terms are not versioned; a
// lookup returns what the branch holds now.
type InMemoryStore struct {
	mu    sync.RWMutex
	terms map[string]map[string]models.TermSet
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{terms: make(map[string]map[string]models.TermSet)}
}

// PutTerms sets terms on a branch, replacing existing entries for the same concepts.
func (s *InMemoryStore) PutTerms(path string, terms map[string]models.TermSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms[path] == nil {
		s.terms[path] = make(map[string]models.TermSet, len(terms))
	}
	maps.Copy(s.terms[path], terms)
}

func (s *InMemoryStore) FindTerms(_ context.Context, view vmodels.View, conceptIDs []string) (map[string]models.TermSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	branch := s.terms[view.Path]
	out := make(map[string]models.TermSet, len(conceptIDs))
	for _, id := range conceptIDs {
		if terms, ok := branch[id]; ok {
			out[id] = terms
		}
	}
	return out, nil
}
