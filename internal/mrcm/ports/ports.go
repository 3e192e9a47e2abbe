// Package ports defines the interfaces the MRCM loader and service consume.
package ports

import (
	"context"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// MemberStore reads and writes versioned reference set members.
type MemberStore interface {
	// FindActiveByRefsets returns the active members of the given refsets visible in view,
	// ordered by member id.
	FindActiveByRefsets(ctx context.Context, view vmodels.View, refsetIDs []string) ([]*models.Member, error)

	// FindMembers returns the members with the given ids visible in view.
	FindMembers(ctx context.Context, view vmodels.View, memberIDs []string) ([]*models.Member, error)

	// FindChangedMemberIDs returns the ids of members in the given refsets that the open
	// commit at view.Timepoint created, changed or ended.
	FindChangedMemberIDs(ctx context.Context, view vmodels.View, refsetIDs []string) ([]string, error)

	// PatchFieldsInPlace merges additional fields and effective time into the existing
	// versions identified by InternalID without creating new versions.
	PatchFieldsInPlace(ctx context.Context, members []*models.Member) error

	// SaveBatch writes a new version of each member starting at the commit timepoint.
	SaveBatch(ctx context.Context, commit *vmodels.Commit, members []*models.Member) error
}

// ConceptStore looks up concept display terms.
type ConceptStore interface {
	FindTerms(ctx context.Context, view vmodels.View, conceptIDs []string) (map[string]models.TermSet, error)
}

// Branches is the subset of the versioning service the MRCM service needs.
type Branches interface {
	Branch(ctx context.Context, path string) (*vmodels.Branch, error)
	HeadView(ctx context.Context, path string) (vmodels.View, error)
	SetMetadata(ctx context.Context, path, key, value string) (*vmodels.Branch, error)
	WithCommit(ctx context.Context, path string, commitType vmodels.CommitType, lockMessage string,
		fn func(ctx context.Context, commit *vmodels.Commit) error) error
}

// AuditStore records regeneration audit events.
type AuditStore interface {
	Append(ctx context.Context, event audit.Event) error
}
