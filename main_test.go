package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compare-base/pkg/aggregate"
	"compare-base/pkg/api"
	"compare-base/pkg/demo"
	"compare-base/pkg/history"
	"compare-base/pkg/models"
)

func setupTestAggregator() {
	// no adapters configured: every compare falls back to demo data
	aggregator = aggregate.New(nil,
		aggregate.WithGenerator(demo.NewWithRand(rand.New(rand.NewSource(1)))),
	)
	searchHistory = nil
}

func TestCompareHandlerErrors(t *testing.T) {
	setupTestAggregator()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedDetail string
	}{
		{
			name:           "Wrong method on compare",
			method:         http.MethodGet,
			path:           "/api/compare",
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Method not allowed. Use POST",
		},
		{
			name:           "Wrong method on searches",
			method:         http.MethodPost,
			path:           "/api/searches",
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Method not allowed. Use GET",
		},
		{
			name:           "Invalid JSON body",
			method:         http.MethodPost,
			path:           "/api/compare",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON body",
		},
		{
			name:           "Empty query",
			method:         http.MethodPost,
			path:           "/api/compare",
			body:           `{"query": ""}`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Valid search query is required",
		},
		{
			name:           "Whitespace query",
			method:         http.MethodPost,
			path:           "/api/compare",
			body:           `{"query": "   "}`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Valid search query is required",
		},
		{
			name:           "Unknown API path",
			method:         http.MethodGet,
			path:           "/api/nothing",
			expectedStatus: http.StatusNotFound,
			expectedDetail: "Unknown API path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}

			req := httptest.NewRequest(tt.method, tt.path, body)
			rr := httptest.NewRecorder()

			rootHandler(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.expectedStatus)
			}

			expectedContentType := "application/problem+json"
			if contentType := rr.Header().Get("Content-Type"); contentType != expectedContentType {
				t.Errorf("handler returned wrong content type: got %v want %v", contentType, expectedContentType)
			}

			var pd api.ProblemDetails
			if err := json.Unmarshal(rr.Body.Bytes(), &pd); err != nil {
				t.Errorf("handler returned invalid JSON: %v. Body: %s", err, rr.Body.String())
			}
			if pd.Status != tt.expectedStatus {
				t.Errorf("JSON status mismatch: got %v want %v", pd.Status, tt.expectedStatus)
			}
			if !strings.Contains(pd.Detail, tt.expectedDetail) {
				t.Errorf("JSON detail mismatch: got %q, want substring %q", pd.Detail, tt.expectedDetail)
			}
			if pd.Instance != tt.path {
				t.Errorf("JSON instance mismatch: got %v want %v", pd.Instance, tt.path)
			}
		})
	}
}

func TestCompareHandlerDemoFallback(t *testing.T) {
	setupTestAggregator()

	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(`{"query": "iPhone 15"}`))
	rr := httptest.NewRecorder()

	rootHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. Body: %s", rr.Code, rr.Body.String())
	}

	var comparison models.Comparison
	if err := json.Unmarshal(rr.Body.Bytes(), &comparison); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	if len(comparison.Results) == 0 {
		t.Fatal("results must never be empty for a valid query")
	}
	for _, offer := range comparison.Results {
		if !offer.IsDemo {
			t.Error("with no adapters configured every offer must be demo")
		}
		if offer.Price < 0 {
			t.Errorf("negative price %d", offer.Price)
		}
		if offer.OriginalPrice != 0 && offer.OriginalPrice <= offer.Price {
			t.Errorf("originalPrice %d not above price %d", offer.OriginalPrice, offer.Price)
		}
	}
	if !strings.Contains(comparison.Note, "demo data") {
		t.Errorf("note = %q, want a demo-data note", comparison.Note)
	}
}

func TestCompareHandlerCORSPreflight(t *testing.T) {
	setupTestAggregator()

	req := httptest.NewRequest(http.MethodOptions, "/api/compare", nil)
	rr := httptest.NewRecorder()

	rootHandler(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", origin)
	}
}

func TestSearchesHandler(t *testing.T) {
	setupTestAggregator()

	store, err := history.New(t.TempDir() + "/history.db")
	if err != nil {
		t.Fatalf("Failed to open history store: %v", err)
	}
	defer store.Close()
	searchHistory = store
	defer func() { searchHistory = nil }()

	store.Record("iPhone 15", &models.Comparison{
		Results: []models.Offer{{Site: "Amazon.in", Price: 65999}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/searches?limit=5", nil)
	rr := httptest.NewRecorder()

	rootHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. Body: %s", rr.Code, rr.Body.String())
	}

	var entries []history.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "iPhone 15" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestSearchesHandlerBadLimit(t *testing.T) {
	setupTestAggregator()

	for _, limit := range []string{"0", "-3", "abc", "1000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/searches?limit="+limit, nil)
		rr := httptest.NewRecorder()

		rootHandler(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rr.Code)
		}
	}
}
