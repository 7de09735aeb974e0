// Package flipkartapi fetches offers from the real-time-flipkart-data2
// RapidAPI service. This upstream has no stable documented route, so the
// adapter probes a fixed list of endpoint shapes in priority order and stops
// at the first 2xx response. The response body is equally unstable: the
// product list has been observed under several different keys, each product
// with several names for the same field, so everything goes through the
// extractor's candidate probing.
package flipkartapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"compare-base/pkg/extract"
	"compare-base/pkg/logger"
	"compare-base/pkg/models"
)

const (
	Site      = "Flipkart"
	Host      = "real-time-flipkart-data2.p.rapidapi.com"
	maxOffers = 5
)

type Adapter struct {
	APIKey    string
	BaseURL   string
	Client    *http.Client
	extractor *extract.Extractor
}

func New(apiKey string) *Adapter {
	return &Adapter{
		APIKey:    apiKey,
		BaseURL:   "https://" + Host,
		Client:    &http.Client{Timeout: 10 * time.Second},
		extractor: extract.New(),
	}
}

func (a *Adapter) Name() string { return Site }

func (a *Adapter) Configured() bool { return a.APIKey != "" }

// endpoints returns the candidate URL shapes in priority order. One attempt
// each, sequential, first success wins.
func (a *Adapter) endpoints(query string) []string {
	escaped := url.QueryEscape(query)
	return []string{
		a.BaseURL + "/search?q=" + escaped,
		a.BaseURL + "/products/search?query=" + escaped,
		a.BaseURL + "/api/search?q=" + escaped,
	}
}

func (a *Adapter) Fetch(ctx context.Context, query, pincode string) ([]models.Offer, error) {
	body, err := a.probe(ctx, query, pincode)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("flipkart api payload: %w", err)
	}

	products := productList(payload)
	if len(products) > maxOffers {
		products = products[:maxOffers]
	}

	offers := make([]models.Offer, 0, len(products))
	for _, product := range products {
		offers = append(offers, a.toOffer(product, query))
	}
	return offers, nil
}

func (a *Adapter) probe(ctx context.Context, query, pincode string) ([]byte, error) {
	var lastErr error
	for _, endpoint := range a.endpoints(query) {
		if pincode != "" {
			endpoint += "&pincode=" + url.QueryEscape(pincode)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("X-RapidAPI-Key", a.APIKey)
		req.Header.Set("X-RapidAPI-Host", Host)

		resp, err := a.Client.Do(req)
		if err != nil {
			lastErr = err
			logger.Dedup("Flipkart endpoint failed: %v", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}
		lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, endpoint)
		logger.Dedup("Flipkart endpoint failed: %v", lastErr)
	}
	return nil, fmt.Errorf("all flipkart endpoints failed: %w", lastErr)
}

// productList digs the product array out of the payload, trying each known
// key in order and taking the first non-empty one.
func productList(payload map[string]any) []map[string]any {
	for _, key := range []string{"products", "data", "results"} {
		raw, ok := payload[key].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		products := make([]map[string]any, 0, len(raw))
		for _, entry := range raw {
			if product, ok := entry.(map[string]any); ok {
				products = append(products, product)
			}
		}
		if len(products) > 0 {
			return products
		}
	}
	return nil
}

func (a *Adapter) toOffer(product map[string]any, query string) models.Offer {
	price := a.extractor.Price(extract.First(product, "price", "current_price", "selling_price"))

	offer := models.Offer{
		Site:         Site,
		Price:        price,
		URL:          models.SearchURL("www.flipkart.com", query),
		Rating:       a.extractor.Rating(extract.First(product, "rating", "ratings", "average_rating")),
		Availability: models.InStock,
	}

	if original, ok := a.extractor.OriginalPrice(extract.First(product, "original_price", "mrp", "list_price"), price); ok {
		offer.OriginalPrice = original
	}
	if productURL, ok := extract.First(product, "url", "link", "product_url").(string); ok && productURL != "" {
		offer.URL = productURL
	}
	return offer
}
