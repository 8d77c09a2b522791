package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"advisory-ai/internal/agent"
	"advisory-ai/internal/indexer"
	"advisory-ai/internal/router"
)

type fakeProcessor struct {
	result *agent.Result
}

func (f *fakeProcessor) Process(ctx context.Context, query string) (*agent.Result, error) {
	return f.result, nil
}

type fakeStatsProvider struct {
	stats *indexer.Stats
}

func (f *fakeStatsProvider) GetStats(ctx context.Context) (*indexer.Stats, error) {
	return f.stats, nil
}

type fakeCollectionChecker struct {
	exists bool
}

func (f *fakeCollectionChecker) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return f.exists, nil
}

func newTestRouter() http.Handler {
	return NewRouter(&Deps{
		Processor:     &fakeProcessor{result: &agent.Result{Answer: "answer", Route: router.RouteUnstructured}},
		StatsProvider: &fakeStatsProvider{stats: &indexer.Stats{CorpusSize: 1}},
		VectorStore:   &fakeCollectionChecker{exists: true},
		Collection:    "advisories",
	})
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "ask",
			method:     http.MethodPost,
			path:       "/api/ask",
			body:       `{"question": "q"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "stats",
			method:     http.MethodGet,
			path:       "/api/stats",
			wantStatus: http.StatusOK,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ask with wrong method",
			method:     http.MethodGet,
			path:       "/api/ask",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/api/unknown",
			wantStatus: http.StatusNotFound,
		},
	}

	handler := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_AskResponseBody(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp agent.Result
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != "answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_DefaultOrigin(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
