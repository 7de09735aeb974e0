// Package amazonapi fetches offers from the real-time-amazon-data RapidAPI
// service, the most stable of the configured upstreams: a single endpoint
// with a documented JSON shape.
package amazonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"compare-base/pkg/extract"
	"compare-base/pkg/models"
)

const (
	Site      = "Amazon.in"
	Host      = "real-time-amazon-data.p.rapidapi.com"
	maxOffers = 3
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

type searchResponse struct {
	Data struct {
		Products []map[string]any `json:"products"`
	} `json:"data"`
}

func (a *Adapter) Fetch(ctx context.Context, query, pincode string) ([]models.Offer, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("country", "IN")
	params.Set("sort_by", "RELEVANCE")
	if pincode != "" {
		params.Set("postal_code", pincode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", a.APIKey)
	req.Header.Set("X-RapidAPI-Host", Host)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("amazon api returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amazon api payload: %w", err)
	}

	products := payload.Data.Products
	if len(products) > maxOffers {
		products = products[:maxOffers]
	}

	offers := make([]models.Offer, 0, len(products))
	for _, product := range products {
		offers = append(offers, a.toOffer(product, query))
	}
	return offers, nil
}

func (a *Adapter) toOffer(product map[string]any, query string) models.Offer {
	price := a.extractor.Price(extract.First(product, "product_price"))

	offer := models.Offer{
		Site:         Site,
		Price:        price,
		URL:          models.SearchURL("www.amazon.in", query),
		Rating:       a.extractor.Rating(extract.First(product, "product_star_rating")),
		Availability: models.LimitedStock,
	}

	if original, ok := a.extractor.OriginalPrice(extract.First(product, "product_original_price"), price); ok {
		offer.OriginalPrice = original
	}
	if productURL, ok := extract.First(product, "product_url").(string); ok && productURL != "" {
		offer.URL = productURL
	}
	if delivery, ok := extract.First(product, "delivery").(string); ok && delivery != "" {
		offer.Availability = models.InStock
	}
	return offer
}
