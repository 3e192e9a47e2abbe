package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/service"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/middleware/admin"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/testutil"
)

type fakeService struct {
	paths   []string
	actors  []string
	enabled *bool
	err     error
}

func (f *fakeService) UpdateAll(ctx context.Context, path string) (*service.Result, error) {
	f.paths = append(f.paths, path)
	f.actors = append(f.actors, requestcontext.Actor(ctx))
	if f.err != nil {
		return nil, f.err
	}
	return &service.Result{
		Branch:  path,
		Changes: models.ChangeSet{AttributeRules: []models.AttributeRuleChange{{
			MemberID: "m1", AttributeID: "272741003", AttributeRule: "<< 91723000 : [0..1] 272741003 = << 182353008",
		}}},
		Saved: 1,
	}, nil
}

func (f *fakeService) Preview(_ context.Context, path string) (*service.Result, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return &service.Result{Branch: path}, nil
}

func (f *fakeService) SetAutoUpdate(_ context.Context, path string, enabled bool) (*vmodels.Branch, error) {
	f.paths = append(f.paths, path)
	f.enabled = &enabled
	if f.err != nil {
		return nil, f.err
	}
	branch := &vmodels.Branch{Path: path, Metadata: map[string]string{}}
	if !enabled {
		branch.Metadata[service.MetadataDisableAutoUpdate] = "true"
	}
	return branch, nil
}

const adminToken = "secret-token"

// adminRequest builds a request carrying the admin token.
func adminRequest(r *http.Request) *http.Request {
	r.Header.Set(admin.TokenHeader, adminToken)
	return r
}

type HandlerSuite struct {
	suite.Suite
	svc    *fakeService
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.svc = &fakeService{}
	s.router = NewRouter(New(s.svc, nil), WithAdminToken(adminToken, nil))
}

// =============================================================================
// Rebuild
// =============================================================================

func (s *HandlerSuite) TestRebuild() {
	s.Run("admin token required", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/admin/mrcm/rebuild/MAIN"))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
		s.Empty(s.svc.paths)
	})

	s.Run("nested branch path is passed through", func() {
		req := adminRequest(testutil.NewRequest(s.T(), http.MethodPost, "/admin/mrcm/rebuild/MAIN/projectA"))
		req.Header.Set("X-Actor", "editor")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		s.Equal([]string{"MAIN/projectA"}, s.svc.paths)
		s.Equal([]string{"editor"}, s.svc.actors)

		result := testutil.UnmarshalResponse[service.Result](s.T(), rr)
		s.Equal("MAIN/projectA", result.Branch)
		s.Require().Len(result.Changes.AttributeRules, 1)
		s.Equal(1, result.Saved)
	})

	s.Run("missing branch is bad request", func() {
		s.svc.paths = nil
		rr := testutil.DoRequest(s.router, adminRequest(testutil.NewRequest(s.T(), http.MethodPost, "/admin/mrcm/rebuild/")))

		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
		s.Empty(s.svc.paths)
	})

	s.Run("service errors map to status codes", func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("branch MAIN/x: %w", sentinel.ErrNotFound), http.StatusNotFound, "not_found"},
			{fmt.Errorf("branch locked: %w", sentinel.ErrConflict), http.StatusConflict, "conflict"},
			{fmt.Errorf("parent cycle: %w", sentinel.ErrInvalidState), http.StatusUnprocessableEntity, "invalid_state"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			s.svc.err = tc.err
			rr := testutil.DoRequest(s.router, adminRequest(testutil.NewRequest(s.T(), http.MethodPost, "/admin/mrcm/rebuild/MAIN")))
			testutil.AssertError(s.T(), rr, tc.status, tc.code)
		}
	})
}

// =============================================================================
// Preview
// =============================================================================

func (s *HandlerSuite) TestPreview() {
	rr := testutil.DoRequest(s.router, adminRequest(testutil.NewRequest(s.T(), http.MethodGet, "/admin/mrcm/preview/MAIN")))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal([]string{"MAIN"}, s.svc.paths)
	testutil.AssertJSONContains(s.T(), rr, "branch", "MAIN")
}

// =============================================================================
// Auto-update flag
// =============================================================================

func (s *HandlerSuite) TestSetAutoUpdate() {
	s.Run("disables auto update", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/branches/auto-update/MAIN/projectA",
			map[string]bool{"enabled": false})
		rr := testutil.DoRequest(s.router, adminRequest(req))

		testutil.AssertStatusOK(s.T(), rr)
		s.Require().NotNil(s.svc.enabled)
		s.False(*s.svc.enabled)
		testutil.AssertJSONContains(s.T(), rr, "auto_update", false)
	})

	s.Run("missing enabled field is bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/branches/auto-update/MAIN", map[string]string{})
		rr := testutil.DoRequest(s.router, adminRequest(req))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("malformed body is bad request", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/admin/branches/auto-update/MAIN", "{")
		rr := testutil.DoRequest(s.router, adminRequest(req))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

// =============================================================================
// Health
// =============================================================================

func TestHealth(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router := NewRouter(New(&fakeService{}, nil), WithHealthChecks(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		}))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "healthy", true)
	})

	t.Run("failing check reports unavailable", func(t *testing.T) {
		router := NewRouter(New(&fakeService{}, nil), WithHealthChecks(map[string]HealthCheck{
			"kafka": func(context.Context) error { return errors.New("no brokers") },
		}))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "no brokers")
	})
}
