package branch

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

// InMemoryStore keeps branches in a map. Callers receive copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	branches map[string]*models.Branch
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{branches: make(map[string]*models.Branch)}
}

func (s *InMemoryStore) Create(_ context.Context, branch *models.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[branch.Path]; ok {
		return fmt.Errorf("branch %s: %w", branch.Path, sentinel.ErrConflict)
	}
	s.branches[branch.Path] = branch.Clone()
	return nil
}

func (s *InMemoryStore) FindByPath(_ context.Context, path string) (*models.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	branch, ok := s.branches[path]
	if !ok {
		return nil, fmt.Errorf("branch %s: %w", path, sentinel.ErrNotFound)
	}
	return branch.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, branch *models.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[branch.Path]; !ok {
		return fmt.Errorf("branch %s: %w", branch.Path, sentinel.ErrNotFound)
	}
	s.branches[branch.Path] = branch.Clone()
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Branch, 0, len(s.branches))
	for _, branch := range s.branches {
		out = append(out, branch.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Branch) int { return strings.Compare(a.Path, b.Path) })
	return out, nil
}
