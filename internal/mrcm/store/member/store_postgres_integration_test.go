//go:build integration

package member_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/store/member"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *member.PostgresStore
	ctx   context.Context
	t0    time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = member.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.Truncate(s.ctx))
	s.t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) commit(tp time.Time) *vmodels.Commit {
	return &vmodels.Commit{Branch: &vmodels.Branch{Path: "MAIN"}, Type: vmodels.CommitTypeContent, Timepoint: tp}
}

func rangeMember(id, constraint string) *models.Member {
	return &models.Member{
		MemberID:              id,
		RefsetID:              models.AttributeRangeRefsetID,
		ReferencedComponentID: "246075003",
		ModuleID:              "900000000000207008",
		Active:                true,
		AdditionalFields: map[string]string{
			models.FieldRangeConstraint: constraint,
			models.FieldRuleStrengthID:  models.RuleStrengthMandatoryID,
			models.FieldContentTypeID:   models.ContentTypeAllID,
		},
	}
}

func (s *PostgresStoreSuite) TestVersionLifecycle() {
	s.Require().NoError(s.store.SaveBatch(s.ctx, s.commit(s.t0), []*models.Member{
		rangeMember("r1", "<< 1"), rangeMember("r2", "<< 2"),
	}))
	t1 := s.t0.Add(time.Second)
	updated := rangeMember("r1", "<< 11")
	s.Require().NoError(s.store.SaveBatch(s.ctx, s.commit(t1), []*models.Member{updated}))

	s.Run("head view sees the new version", func() {
		got, err := s.store.FindActiveByRefsets(s.ctx, vmodels.View{Path: "MAIN", Timepoint: t1}, models.RefsetIDs)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal("r1", got[0].MemberID)
		s.Equal("<< 11", got[0].Field(models.FieldRangeConstraint))
		s.Equal(updated.InternalID, got[0].InternalID)
		s.True(got[0].Start.Equal(t1))
	})

	s.Run("older view sees the ended version", func() {
		got, err := s.store.FindMembers(s.ctx, vmodels.View{Path: "MAIN", Timepoint: s.t0}, []string{"r1"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("<< 1", got[0].Field(models.FieldRangeConstraint))
	})

	s.Run("change scope covers the commit", func() {
		ids, err := s.store.FindChangedMemberIDs(s.ctx, vmodels.View{Path: "MAIN", Timepoint: t1}, models.RefsetIDs)
		s.Require().NoError(err)
		s.Equal([]string{"r1"}, ids)
	})

	s.Run("same timepoint conflicts", func() {
		err := s.store.SaveBatch(s.ctx, s.commit(t1), []*models.Member{rangeMember("r1", "<< 12")})
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("patch merges fields", func() {
		patch := updated.Clone()
		patch.AdditionalFields = map[string]string{models.FieldAttributeRule: "rule"}
		s.Require().NoError(s.store.PatchFieldsInPlace(s.ctx, []*models.Member{patch}))

		got, err := s.store.FindMembers(s.ctx, vmodels.View{Path: "MAIN", Timepoint: t1}, []string{"r1"})
		s.Require().NoError(err)
		s.Equal("rule", got[0].Field(models.FieldAttributeRule))
		s.Equal("<< 11", got[0].Field(models.FieldRangeConstraint))
	})
}

func (s *PostgresStoreSuite) TestRolledBackTransactionLeavesNothing() {
	sqlTx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	ctx := tx.WithTx(s.ctx, sqlTx)

	s.Require().NoError(s.store.SaveBatch(ctx, s.commit(s.t0), []*models.Member{rangeMember("r1", "<< 1")}))
	s.Require().NoError(sqlTx.Rollback())

	got, err := s.store.FindMembers(s.ctx, vmodels.View{Path: "MAIN", Timepoint: s.t0}, []string{"r1"})
	s.Require().NoError(err)
	s.Empty(got)
}
