// Package testutil holds request builders and response assertions for the admin HTTP
// handlers, plus the shared integration containers.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/httputil"
)

// NewRequest builds a request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewJSONRequest builds a request whose body is body encoded as JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err, "encode request body")
	return NewRequestWithBody(t, method, path, string(encoded))
}

// NewRequestWithBody builds a JSON request from raw text, for bodies that must not be
// valid JSON.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the response body into a T. The body stays readable.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "decode response body %q", rr.Body.String())
	return &result
}

// DecodeError decodes the error envelope written by httputil.
func DecodeError(t *testing.T, rr *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var envelope httputil.ErrorResponse
	dec := json.NewDecoder(bytes.NewReader(rr.Body.Bytes()))
	dec.DisallowUnknownFields()
	require.NoError(t, dec.Decode(&envelope), "decode error envelope %q", rr.Body.String())
	return envelope
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rr.Code, "unexpected status, body %q", rr.Body.String())
}

// AssertError checks the status and error code of an error envelope. Internal
// errors must not leak a description; every other error must carry one.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status, body %q", rr.Body.String())
	envelope := DecodeError(t, rr)
	assert.Equal(t, code, envelope.Error, "unexpected error code")
	if status == http.StatusInternalServerError {
		assert.Empty(t, envelope.ErrorDescription, "internal error leaked a description")
	} else {
		assert.NotEmpty(t, envelope.ErrorDescription, "error %q has no description", code)
	}
}

// AssertJSONContains checks one top-level field of a JSON object response.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expected any) {
	t.Helper()
	result := UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, expected, (*result)[key], "unexpected value for key %q", key)
}
