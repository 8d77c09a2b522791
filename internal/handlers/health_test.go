package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCollectionChecker struct {
	exists bool
	err    error
}

func (f *fakeCollectionChecker) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return f.exists, f.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checker    *fakeCollectionChecker
		wantStatus int
		wantState  string
		wantCheck  string
	}{
		{
			name:       "healthy",
			checker:    &fakeCollectionChecker{exists: true},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantCheck:  "ok",
		},
		{
			name:       "collection missing",
			checker:    &fakeCollectionChecker{exists: false},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantCheck:  "error",
		},
		{
			name:       "vector store unreachable",
			checker:    &fakeCollectionChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantCheck:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checker, "advisories")

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantState)
			}
			if resp.Checks["vector_store"] != tt.wantCheck {
				t.Errorf("Checks[vector_store] = %q, want %q", resp.Checks["vector_store"], tt.wantCheck)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler(&fakeCollectionChecker{exists: true}, "advisories")

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
