package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(config.Default(), []byte("test-secret"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSanitizeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/v1/sanitize", "text/plain",
		strings.NewReader("Email jane@acme.com today"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SanitizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotContains(t, out.Sanitized, "jane@acme.com")
	assert.Contains(t, out.Sanitized, "@example.")
	require.NotNil(t, out.Verification)
	assert.True(t, out.Verification.SeedPresent)
}

func TestSanitizeEmptyBody(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/v1/sanitize", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SanitizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "", out.Sanitized)
}

func TestLimiterPerCaller(t *testing.T) {
	rl := NewLimiter(Limits{GlobalRPM: 600, CallerRPM: 2})
	require.NoError(t, rl.Acquire("a"))
	require.NoError(t, rl.Acquire("a"))
	err := rl.Acquire("a")
	require.Error(t, err, "third request in the same minute is limited")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NoError(t, rl.Acquire("b"), "other callers are unaffected")
}

func TestLimiterSharedBudget(t *testing.T) {
	rl := NewLimiter(Limits{GlobalRPM: 1, CallerRPM: 10})
	require.NoError(t, rl.Acquire("a"))
	err := rl.Acquire("b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestLimiterEvictsIdleCallers(t *testing.T) {
	rl := NewLimiter(Limits{GlobalRPM: 600, CallerRPM: 2, IdleEviction: time.Minute})
	now := time.Now()
	rl.now = func() time.Time { return now }

	require.NoError(t, rl.Acquire("a"))
	assert.Len(t, rl.callers, 1)

	now = now.Add(2 * time.Minute)
	require.NoError(t, rl.Acquire("b"))
	assert.Len(t, rl.callers, 1, "idle caller a is evicted")
	_, ok := rl.callers["b"]
	assert.True(t, ok)
}
