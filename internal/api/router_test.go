package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/automation"
	"github.com/timmy/hrnotify/internal/config"
	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/source"
)

type unavailableLoader struct{}

func (unavailableLoader) GetSourceID() string { return "none" }

func (unavailableLoader) Load(ctx context.Context) ([]domain.Record, error) {
	return nil, source.ErrDatasetUnavailable
}

type explodingLoader struct{}

func (explodingLoader) GetSourceID() string { return "exploding" }

func (explodingLoader) Load(ctx context.Context) ([]domain.Record, error) {
	panic("dataset exploded")
}

func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	return newRouterWithLoader(t, unavailableLoader{}, token)
}

func newRouterWithLoader(t *testing.T, loader source.Loader, token string) http.Handler {
	t.Helper()
	controller := automation.NewController(automation.Deps{Loader: loader}, automation.Settings{})
	batches, err := automation.NewBatchRunner(controller, automation.DefaultBatches())
	require.NoError(t, err)

	previews := func(ctx context.Context, now time.Time) (map[string]string, error) {
		return map[string]string{"alerts/overtime_alert.html": "<p>preview</p>"}, nil
	}
	return SetupRouter(controller, batches, previews, &config.ServerConfig{Mode: "test", APIToken: token})
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t, "")

	testCases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"list automations", http.MethodGet, "/api/v1/automations", http.StatusOK},
		{"run automation", http.MethodPost, "/api/v1/automations/individual_overtime/run", http.StatusOK},
		{"unknown automation", http.MethodPost, "/api/v1/automations/birthday/run", http.StatusNotFound},
		{"run batch", http.MethodPost, "/api/v1/batches/daily/run", http.StatusOK},
		{"run batch in parallel", http.MethodPost, "/api/v1/batches/all/run?parallel=true", http.StatusOK},
		{"unknown batch", http.MethodPost, "/api/v1/batches/monthly/run", http.StatusNotFound},
		{"status", http.MethodGet, "/api/v1/runs/status", http.StatusOK},
		{"list previews", http.MethodGet, "/api/v1/previews", http.StatusOK},
		{"preview", http.MethodGet, "/api/v1/previews/alerts/overtime_alert.html", http.StatusOK},
		{"unknown preview", http.MethodGet, "/api/v1/previews/alerts/nope.html", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, "")
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_RunAutomationBody(t *testing.T) {
	w := do(newTestRouter(t, ""), http.MethodPost, "/api/v1/automations/work_anniversary/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Automation string               `json:"automation"`
		Tally      domain.DispatchTally `json:"tally"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "work_anniversary", resp.Automation)
	assert.Equal(t, domain.DispatchTally{}, resp.Tally)
}

func TestRouter_RunBatchBody(t *testing.T) {
	w := do(newTestRouter(t, ""), http.MethodPost, "/api/v1/batches/weekly/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report automation.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "weekly", report.Batch)
	require.Len(t, report.Results, 2)
	assert.Equal(t, automation.ManagerSummary, report.Results[0].Automation)
}

func TestRouter_PreviewIsHTML(t *testing.T) {
	w := do(newTestRouter(t, ""), http.MethodGet, "/api/v1/previews/alerts/overtime_alert.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<p>preview</p>", w.Body.String())
}

func TestRouter_BearerAuth(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/batches/daily/run", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/batches/daily/run", "wrong").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/batches/daily/run", "s3cret").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/automations", "").Code)
}

func TestRouter_PreviewError(t *testing.T) {
	controller := automation.NewController(automation.Deps{Loader: unavailableLoader{}}, automation.Settings{})
	batches, err := automation.NewBatchRunner(controller, automation.DefaultBatches())
	require.NoError(t, err)
	failing := func(ctx context.Context, now time.Time) (map[string]string, error) {
		return nil, errors.New("template broken")
	}
	r := SetupRouter(controller, batches, failing, &config.ServerConfig{Mode: "test"})

	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/api/v1/previews/x.html", "").Code)
}

func TestRouter_PanickingRunReleasesSlot(t *testing.T) {
	r := newRouterWithLoader(t, explodingLoader{}, "")

	w := do(r, http.MethodPost, "/api/v1/automations/individual_overtime/run", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "dataset exploded")

	// Batches recover per automation, so the next run is accepted and completes.
	w = do(r, http.MethodPost, "/api/v1/batches/daily/run", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status struct {
		IsRunning     bool   `json:"is_running"`
		LastRunStatus string `json:"last_run_status"`
	}
	w = do(r, http.MethodGet, "/api/v1/runs/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.IsRunning)
	assert.Equal(t, "success", status.LastRunStatus)
}
