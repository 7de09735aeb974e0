// Package flipkarthtml scrapes the Flipkart search results page directly.
// It needs no API credential and serves as the fallback transport when the
// structured Flipkart API is not configured. Markup scraping is inherently
// fragile: every selector here has broken before and will break again, so
// zero matching blocks is an expected outcome, not an error.
package flipkarthtml

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"compare-base/pkg/extract"
	"compare-base/pkg/models"
)

const (
	Site      = "Flipkart"
	maxOffers = 4
)

type Adapter struct {
	Enabled   bool
	BaseURL   string
	Timeout   time.Duration
	extractor *extract.Extractor
}

func New(enabled bool) *Adapter {
	return &Adapter{
		Enabled:   enabled,
		BaseURL:   "https://www.flipkart.com/search",
		Timeout:   10 * time.Second,
		extractor: extract.New(),
	}
}

func (a *Adapter) Name() string { return Site }

func (a *Adapter) Configured() bool { return a.Enabled }

func (a *Adapter) Fetch(ctx context.Context, query, pincode string) ([]models.Offer, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	c.SetRequestTimeout(a.Timeout)
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < a.Timeout {
			c.SetRequestTimeout(remaining)
		}
	}

	var offers []models.Offer
	seen := map[string]bool{}

	// Result cards have cycled through several class names over time; the
	// selector lists here cover the variants seen so far.
	c.OnHTML("div._1AtVbE, div._75nlfW > div", func(e *colly.HTMLElement) {
		if len(offers) >= maxOffers {
			return
		}
		offer, title, ok := a.parseCard(e, query)
		if !ok || seen[title] {
			return
		}
		seen[title] = true
		offers = append(offers, offer)
	})

	if err := c.Visit(a.BaseURL + "?q=" + url.QueryEscape(query)); err != nil {
		return nil, err
	}
	c.Wait()

	return offers, nil
}

// parseCard extracts one offer from a result card. Cards without a price
// block (ads, banners, category strips) are skipped.
func (a *Adapter) parseCard(e *colly.HTMLElement, query string) (models.Offer, string, bool) {
	priceText := firstText(e, "div._30jeq3", "div.Nx9bqj")
	if priceText == "" {
		return models.Offer{}, "", false
	}

	title := firstText(e, "div._4rR01T", "a.s1Q9rs", "div.KzDlHZ")
	if title == "" {
		return models.Offer{}, "", false
	}

	price := a.extractor.Price(priceText)

	offer := models.Offer{
		Site:         Site,
		Price:        price,
		URL:          models.SearchURL("www.flipkart.com", query),
		Availability: models.InStock,
	}

	if originalText := firstText(e, "div._3I9_wc", "div.yRaY8j"); originalText != "" {
		if original, ok := a.extractor.OriginalPrice(originalText, price); ok {
			offer.OriginalPrice = original
		}
	}

	offer.Rating = a.extractor.Rating(firstText(e, "div._3LWZlK", "div.XQDdHH"))

	if href := e.ChildAttr("a[href]", "href"); href != "" {
		offer.URL = e.Request.AbsoluteURL(href)
	}
	return offer, title, true
}

func firstText(e *colly.HTMLElement, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(e.ChildText(selector)); text != "" {
			return text
		}
	}
	return ""
}
