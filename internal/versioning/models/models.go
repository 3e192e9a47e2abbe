// Package models holds branches, commits and point-in-time views of the versioned
// document store.
package models

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Branch is a named line of content. Head is the timepoint of the last completed commit.
type Branch struct {
	Path      string            `json:"path"`
	Metadata  map[string]string `json:"metadata"`
	Head      time.Time         `json:"head"`
	CreatedAt time.Time         `json:"created_at"`
	Locked    bool              `json:"locked"`
}

// MetadataValue returns a metadata value, or "" when absent.
func (b *Branch) MetadataValue(key string) string {
	return b.Metadata[key]
}

// Clone returns a copy that shares nothing with the original.
func (b *Branch) Clone() *Branch {
	c := *b
	c.Metadata = maps.Clone(b.Metadata)
	return &c
}

// CommitType distinguishes authoring commits from merges between branches.
type CommitType int

const (
	CommitTypeContent CommitType = iota + 1
	CommitTypeRebase
	CommitTypePromotion
)

func (t CommitType) String() string {
	switch t {
	case CommitTypeContent:
		return "CONTENT"
	case CommitTypeRebase:
		return "REBASE"
	case CommitTypePromotion:
		return "PROMOTION"
	default:
		return "UNKNOWN"
	}
}

// Commit is an open unit of change on one branch. Every document version written
// through the commit starts at Timepoint.
type Commit struct {
	ID          uuid.UUID
	Branch      *Branch
	Type        CommitType
	Timepoint   time.Time
	LockMessage string
}

// View returns the branch as of this commit, including the commit's own writes.
func (c *Commit) View() View {
	return View{Path: c.Branch.Path, Timepoint: c.Timepoint}
}

// View is a branch as of a point in time. Versions with Start <= Timepoint that have
// not ended by Timepoint are visible.
type View struct {
	Path      string
	Timepoint time.Time
}

// Visible reports whether a version with the given lifetime is visible in the view.
func (v View) Visible(path string, start time.Time, end *time.Time) bool {
	if path != v.Path || start.After(v.Timepoint) {
		return false
	}
	return end == nil || end.After(v.Timepoint)
}
