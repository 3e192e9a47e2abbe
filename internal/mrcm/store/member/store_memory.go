// Package member stores versioned reference set members.
package member

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	pstrings "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/strings"
)

// InMemoryStore keeps every version of every member. A new version ends the previous
// one at the commit timepoint; RollbackCommit undoes both halves.
type InMemoryStore struct {
	mu       sync.RWMutex
	versions map[string]*models.Member // by InternalID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{versions: make(map[string]*models.Member)}
}

func (s *InMemoryStore) FindActiveByRefsets(_ context.Context, view vmodels.View, refsetIDs []string) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(view, func(m *models.Member) bool {
		return m.Active && slices.Contains(refsetIDs, m.RefsetID)
	}), nil
}

func (s *InMemoryStore) FindMembers(_ context.Context, view vmodels.View, memberIDs []string) ([]*models.Member, error) {
	wanted := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(view, func(m *models.Member) bool {
		_, ok := wanted[m.MemberID]
		return ok
	}), nil
}

func (s *InMemoryStore) FindChangedMemberIDs(_ context.Context, view vmodels.View, refsetIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, m := range s.versions {
		if m.Path != view.Path || !slices.Contains(refsetIDs, m.RefsetID) {
			continue
		}
		if m.Start.Equal(view.Timepoint) || (m.End != nil && m.End.Equal(view.Timepoint)) {
			ids = append(ids, m.MemberID)
		}
	}
	return pstrings.SortedSet(ids), nil
}

func (s *InMemoryStore) PatchFieldsInPlace(_ context.Context, members []*models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		if _, ok := s.versions[m.InternalID]; !ok {
			return fmt.Errorf("member version %s: %w", m.InternalID, sentinel.ErrNotFound)
		}
	}
	for _, m := range members {
		stored := s.versions[m.InternalID]
		if stored.AdditionalFields == nil {
			stored.AdditionalFields = make(map[string]string, len(m.AdditionalFields))
		}
		maps.Copy(stored.AdditionalFields, m.AdditionalFields)
		stored.EffectiveTime = m.EffectiveTime
	}
	return nil
}

// SaveBatch ends the current version of each member on the commit branch and writes
// the given state as a new version. The caller's members receive the new version's
// identity.
func (s *InMemoryStore) SaveBatch(_ context.Context, commit *vmodels.Commit, members []*models.Member) error {
	path, tp := commit.Branch.Path, commit.Timepoint
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range members {
		for _, existing := range s.versions {
			if existing.Path == path && existing.MemberID == m.MemberID && existing.Start.Equal(tp) {
				return fmt.Errorf("member %s already has a version at %s: %w",
					m.MemberID, tp.Format(time.RFC3339Nano), sentinel.ErrConflict)
			}
		}
	}
	for _, m := range members {
		for _, existing := range s.versions {
			if existing.Path == path && existing.MemberID == m.MemberID && existing.End == nil {
				end := tp
				existing.End = &end
			}
		}
		m.InternalID = uuid.NewString()
		m.Path = path
		m.Start = tp
		m.End = nil
		s.versions[m.InternalID] = m.Clone()
	}
	return nil
}

// RollbackCommit discards the versions an aborted commit wrote and reopens the versions
// it ended.
func (s *InMemoryStore) RollbackCommit(_ context.Context, commit *vmodels.Commit) error {
	path, tp := commit.Branch.Path, commit.Timepoint
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.versions {
		if m.Path != path {
			continue
		}
		if m.Start.Equal(tp) {
			delete(s.versions, id)
			continue
		}
		if m.End != nil && m.End.Equal(tp) {
			m.End = nil
		}
	}
	return nil
}

// collect returns copies of the versions visible in view that match keep, ordered by
// member id. Caller holds the lock.
func (s *InMemoryStore) collect(view vmodels.View, keep func(*models.Member) bool) []*models.Member {
	var out []*models.Member
	for _, m := range s.versions {
		if view.Visible(m.Path, m.Start, m.End) && keep(m) {
			out = append(out, m.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Member) int {
		return strings.Compare(a.MemberID, b.MemberID)
	})
	return out
}
