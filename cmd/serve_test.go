package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadmatch/leadmatch/internal/compare"
	"github.com/leadmatch/leadmatch/internal/extract"
	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/model"
	"github.com/leadmatch/leadmatch/internal/search"
	"github.com/leadmatch/leadmatch/internal/workflow"
)

type stubProvider struct {
	results []model.SearchResult
}

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	return s.results, nil
}

type stubFetcher struct {
	text string
}

func (s *stubFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	return s.text, nil
}

type stubSink struct{ path string }

func (s *stubSink) Save(report *model.ComparisonReport) (string, error) {
	return s.path, nil
}

// stubCompleter answers comparison calls (the larger token budget) with an
// analysis and everything else with an extracted profile.
type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	if req.MaxTokens == 2500 {
		return `{"match_summary": "Fit.", "business_match_percentage": 80, "overall_opportunity": "Go."}`, nil
	}
	return `{"name": "Acme Corp", "industry": "Manufacturing"}`, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	completer := stubCompleter{}
	ctrl := workflow.NewController(
		search.NewEngine(&stubProvider{results: []model.SearchResult{
			{URL: "https://acme.com", Title: "Acme Corp"},
		}}, nil),
		&stubFetcher{text: "Acme makes anvils."},
		extract.NewExtractor(completer),
		compare.NewEngine(completer),
		&stubSink{path: "reports/r.txt"},
		nil,
	)
	api := &apiServer{env: &workflowEnv{Controller: ctrl}}
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, sessionID string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp, decoded
}

func field(t *testing.T, m map[string]json.RawMessage, key string) string {
	t.Helper()
	var s string
	if raw, ok := m[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", field(t, body, "status"))
}

func TestPhaseFlow(t *testing.T) {
	srv := newTestServer(t)
	const id = "test-session"

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/phase1/lead", id, map[string]string{"name": "Acme Corp"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", field(t, body, "status"))
	assert.Equal(t, id, field(t, body, "session_id"))

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/phase2/search", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/phase3/select", id, map[string]string{"url": "https://acme.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/phase4/scrape", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/phase5/compare", id, map[string]any{
		"user_company": map[string]any{"name": "Widget Co"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/status", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var phase int
	require.NoError(t, json.Unmarshal(body["phase"], &phase))
	assert.Equal(t, int(model.PhaseComplete), phase)
}

func TestPhaseOutOfOrder(t *testing.T) {
	srv := newTestServer(t)
	const id = "test-session"

	// Scraping before anything else violates the phase precondition.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/phase4/scrape", id, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", field(t, body, "status"))
}

func TestSetLeadRequiresName(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/phase1/lead", "s", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionIDGenerated(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, field(t, body, "session_id"))
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/phase1/lead", "a", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A different session id is unaffected and still sits at phase 1.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/status", "b", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var phase int
	require.NoError(t, json.Unmarshal(body["phase"], &phase))
	assert.Equal(t, int(model.PhaseLeadNamed), phase)
}

func TestReset(t *testing.T) {
	srv := newTestServer(t)
	const id = "test-session"

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/phase1/lead", id, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/reset", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var phase int
	require.NoError(t, json.Unmarshal(body["phase"], &phase))
	assert.Equal(t, int(model.PhaseLeadNamed), phase)
}

func TestExportBeforeReport(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/export", "fresh", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuickMatch(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/quick-match", "", map[string]string{
		"user_url": "widget.co",
		"lead_url": "acme.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", field(t, body, "status"))

	var rep model.ComparisonReport
	require.NoError(t, json.Unmarshal(body["data"], &rep))
	assert.Equal(t, 80, rep.NumericSummary.OverallScore)
	assert.Equal(t, "reports/r.txt", rep.SavedTo)
}

func TestQuickMatchRequiresBothURLs(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/quick-match", "", map[string]string{"user_url": "widget.co"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportAfterQuickMatchStillEmpty(t *testing.T) {
	// Quick match bypasses sessions, so the session report stays unset.
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/quick-match", "qm", map[string]string{
		"user_url": "widget.co", "lead_url": "acme.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/export", "qm", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportAfterFullFlow(t *testing.T) {
	srv := newTestServer(t)
	const id = "exp"

	for _, step := range []struct {
		path string
		body any
	}{
		{"/api/phase1/lead", map[string]string{"name": "Acme"}},
		{"/api/phase2/search", nil},
		{"/api/phase3/select", map[string]string{"url": "https://acme.com"}},
		{"/api/phase4/scrape", nil},
		{"/api/phase5/compare", map[string]any{"user_company": map[string]any{"name": "Widget Co"}}},
	} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+step.path, id, step.body)
		require.Equal(t, http.StatusOK, resp.StatusCode, step.path)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/export", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data map[string]string
	require.NoError(t, json.Unmarshal(body["data"], &data))
	assert.Equal(t, "reports/r.txt", data["saved_to"])
}
