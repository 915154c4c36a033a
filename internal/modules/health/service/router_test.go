package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel_bot/internal/runner"
)

type stubSessions []runner.Info

func (s stubSessions) Status() []runner.Info { return s }
func (s stubSessions) Running() int          { return len(s) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	h.ServeHTTP(w, req)
	return w
}

func TestProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	state := NewState()
	r := NewRouter(state, stubSessions{{AccountID: 1, Name: "demo", State: runner.StateRunning}})

	assert.Equal(t, http.StatusOK, get(t, r, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/readyz").Code)

	state.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, r, "/readyz").Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(get(t, r, "/healthz").Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
	assert.EqualValues(t, 1, body["running"])
}

func TestSessionsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewState(), stubSessions{{AccountID: 7, Name: "demo", State: runner.StateStopped, Error: "boom"}})

	w := get(t, r, "/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []runner.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, int64(7), infos[0].AccountID)
	assert.Equal(t, runner.StateStopped, infos[0].State)
	assert.Equal(t, "boom", infos[0].Error)
}
