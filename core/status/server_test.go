package status_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"spoolsync/core/engine"
	"spoolsync/core/status"
	"spoolsync/core/updater"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSyncer struct {
	summary *engine.SyncSummary
}

func (s *stubSyncer) Sync(context.Context) (*engine.SyncSummary, error) {
	return s.summary, nil
}

func newTestServer(t *testing.T, loop *updater.Loop) *status.Server {
	t.Helper()
	return status.New(status.Config{Port: "9090"}, loop, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	loop := updater.New(updater.Config{}, &stubSyncer{}, nil, zap.NewNop())
	srv := newTestServer(t, loop)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestStatus_BeforeFirstSync(t *testing.T) {
	loop := updater.New(updater.Config{}, &stubSyncer{}, nil, zap.NewNop())
	srv := newTestServer(t, loop)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		State   string              `json:"state"`
		Summary *engine.SyncSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "idle", got.State)
	assert.Nil(t, got.Summary)
}

func TestStatus_AfterSync(t *testing.T) {
	loop := updater.New(updater.Config{}, &stubSyncer{
		summary: &engine.SyncSummary{RunID: "abc", Created: 3, Unchanged: 2},
	}, nil, zap.NewNop())
	srv := newTestServer(t, loop)

	_, err := loop.RunOnce(context.Background())
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		State   string              `json:"state"`
		Summary *engine.SyncSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "stopped", got.State)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "abc", got.Summary.RunID)
	assert.Equal(t, 3, got.Summary.Created)
}

func TestEnabled(t *testing.T) {
	loop := updater.New(updater.Config{}, &stubSyncer{}, nil, zap.NewNop())
	assert.True(t, status.New(status.Config{Port: "9090"}, loop, zap.NewNop()).Enabled())
	assert.False(t, status.New(status.Config{}, loop, zap.NewNop()).Enabled())
}
