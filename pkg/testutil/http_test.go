package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/httputil"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

func TestAssertError(t *testing.T) {
	handler := func(err error) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			httputil.WriteError(w, err)
		})
	}

	t.Run("described error envelope", func(t *testing.T) {
		rr := DoRequest(handler(fmt.Errorf("branch MAIN: %w", sentinel.ErrNotFound)), NewRequest(t, http.MethodGet, "/"))
		AssertError(t, rr, http.StatusNotFound, "not_found")
		assert.Equal(t, "branch MAIN: not found", DecodeError(t, rr).ErrorDescription)
	})

	t.Run("internal error envelope has no description", func(t *testing.T) {
		rr := DoRequest(handler(fmt.Errorf("scan: %w", sentinel.ErrIntegrity)), NewRequest(t, http.MethodGet, "/"))
		AssertError(t, rr, http.StatusInternalServerError, "integrity_violation")
	})

	t.Run("bad request envelope", func(t *testing.T) {
		rr := DoRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			httputil.BadRequest(w, "enabled is required")
		}), NewRequest(t, http.MethodPut, "/"))
		AssertError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestJSONRequest(t *testing.T) {
	req := NewJSONRequest(t, http.MethodPut, "/admin/branches/auto-update/MAIN", map[string]bool{"enabled": true})
	rr := DoRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}), req)

	AssertStatusOK(t, rr)
	AssertJSONContains(t, rr, "enabled", true)
	assert.Equal(t, map[string]bool{"enabled": true}, *UnmarshalResponse[map[string]bool](t, rr))
}
