package flipkartapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchProbesEndpointsInOrder(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		if key := r.Header.Get("X-RapidAPI-Key"); key != "test-key" {
			t.Errorf("missing API key header, got %q", key)
		}

		// first endpoint shape is not served, second is
		if r.URL.Path == "/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"products": [{"title": "Pixel 9", "price": "₹44,999", "mrp": "₹52,999", "rating": "4.4", "url": "https://www.flipkart.com/pixel-9"}]}`)
	}))
	defer ts.Close()

	adapter := New("test-key")
	adapter.BaseURL = ts.URL

	offers, err := adapter.Fetch(context.Background(), "pixel 9", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/search" || paths[1] != "/products/search" {
		t.Errorf("probe order wrong: %v", paths)
	}

	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}
	offer := offers[0]
	if offer.Site != Site {
		t.Errorf("site = %q, want %q", offer.Site, Site)
	}
	if offer.Price != 44999 {
		t.Errorf("price = %d, want 44999", offer.Price)
	}
	if offer.OriginalPrice != 52999 {
		t.Errorf("originalPrice = %d, want 52999", offer.OriginalPrice)
	}
	if offer.Rating != 4.4 {
		t.Errorf("rating = %v, want 4.4", offer.Rating)
	}
	if offer.URL != "https://www.flipkart.com/pixel-9" {
		t.Errorf("url = %q", offer.URL)
	}
}

func TestFetchStopsAtFirstSuccess(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"products": [{"title": "x", "price": 100}]}`)
	}))
	defer ts.Close()

	adapter := New("test-key")
	adapter.BaseURL = ts.URL

	if _, err := adapter.Fetch(context.Background(), "x", ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 request, got %d", hits)
	}
}

func TestFetchAllEndpointsFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	adapter := New("test-key")
	adapter.BaseURL = ts.URL

	offers, err := adapter.Fetch(context.Background(), "x", "")
	if err == nil {
		t.Fatal("expected an error when every endpoint fails")
	}
	if len(offers) != 0 {
		t.Errorf("expected no offers, got %d", len(offers))
	}
}

func TestFetchProbesPayloadKeys(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		offers int
		price  int
	}{
		{"products key", `{"products": [{"price": 500}]}`, 1, 500},
		{"data key", `{"data": [{"current_price": 750}]}`, 1, 750},
		{"results key", `{"results": [{"selling_price": "₹1,000"}]}`, 1, 1000},
		{"empty products falls through to data", `{"products": [], "data": [{"price": 300}]}`, 1, 300},
		{"no recognized key", `{"items": [{"price": 500}]}`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			adapter := New("test-key")
			adapter.BaseURL = ts.URL

			offers, err := adapter.Fetch(context.Background(), "x", "")
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(offers) != tt.offers {
				t.Fatalf("expected %d offers, got %d", tt.offers, len(offers))
			}
			if tt.offers > 0 && offers[0].Price != tt.price {
				t.Errorf("price = %d, want %d", offers[0].Price, tt.price)
			}
		})
	}
}

func TestFetchTruncatesOffers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products": [
			{"price": 1}, {"price": 2}, {"price": 3}, {"price": 4},
			{"price": 5}, {"price": 6}, {"price": 7}
		]}`)
	}))
	defer ts.Close()

	adapter := New("test-key")
	adapter.BaseURL = ts.URL

	offers, err := adapter.Fetch(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(offers) != maxOffers {
		t.Errorf("expected %d offers, got %d", maxOffers, len(offers))
	}
}

func TestFetchIgnoresBogusOriginalPrice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products": [{"price": 48000, "mrp": 40000}]}`)
	}))
	defer ts.Close()

	adapter := New("test-key")
	adapter.BaseURL = ts.URL

	offers, err := adapter.Fetch(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if offers[0].OriginalPrice != 0 {
		t.Errorf("originalPrice below price must be dropped, got %d", offers[0].OriginalPrice)
	}
}

func TestConfigured(t *testing.T) {
	if New("").Configured() {
		t.Error("adapter without key must report unconfigured")
	}
	if !New("k").Configured() {
		t.Error("adapter with key must report configured")
	}
}
