// Package croma scrapes croma.com search results. The page is rendered
// client-side, so a headless browser fetches it and goquery picks the
// product tiles out of the rendered DOM.
package croma

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"compare-base/pkg/extract"
	"compare-base/pkg/models"
)

const (
	Site      = "Croma"
	BaseURL   = "https://www.croma.com/searchB"
	maxOffers = 3
)

type Adapter struct {
	Enabled   bool
	Timeout   time.Duration
	extractor *extract.Extractor

	// renderPage is swapped out in tests to avoid launching a browser.
	renderPage func(ctx context.Context, pageURL string, timeout time.Duration) (string, error)
}

func New(enabled bool) *Adapter {
	return &Adapter{
		Enabled:    enabled,
		Timeout:    30 * time.Second,
		extractor:  extract.New(),
		renderPage: renderWithChromedp,
	}
}

func (a *Adapter) Name() string { return Site }

func (a *Adapter) Configured() bool { return a.Enabled }

func (a *Adapter) Fetch(ctx context.Context, query, pincode string) ([]models.Offer, error) {
	pageURL := fmt.Sprintf("%s?q=%s", BaseURL, url.QueryEscape(query))

	log.Printf("[CROMA] Navigating to %s", pageURL)
	html, err := a.renderPage(ctx, pageURL, a.Timeout)
	if err != nil {
		return nil, fmt.Errorf("croma render: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("croma parse: %w", err)
	}

	var offers []models.Offer
	doc.Find("li.product-item, div.cp-product").EachWithBreak(func(i int, s *goquery.Selection) bool {
		offer, ok := a.parseTile(s, query)
		if ok {
			offers = append(offers, offer)
		}
		return len(offers) < maxOffers
	})
	return offers, nil
}

func (a *Adapter) parseTile(s *goquery.Selection, query string) (models.Offer, bool) {
	title := strings.TrimSpace(s.Find("h3.product-title, a.product-title").First().Text())
	priceText := strings.TrimSpace(s.Find("span.amount, span.new-price").First().Text())
	if title == "" || priceText == "" {
		return models.Offer{}, false
	}

	price := a.extractor.Price(priceText)

	offer := models.Offer{
		Site:         Site,
		Price:        price,
		URL:          models.SearchURL("www.croma.com", query),
		Rating:       a.extractor.Rating(strings.TrimSpace(s.Find("span.rating-text").First().Text())),
		Availability: models.InStock,
	}

	if originalText := strings.TrimSpace(s.Find("span.old-price, span.strike").First().Text()); originalText != "" {
		if original, ok := a.extractor.OriginalPrice(originalText, price); ok {
			offer.OriginalPrice = original
		}
	}

	if href, ok := s.Find("a[href]").First().Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "/") {
			href = "https://www.croma.com" + href
		}
		offer.URL = href
	}
	return offer, true
}

func renderWithChromedp(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	renderCtx, cancelRender := context.WithTimeout(browserCtx, timeout)
	defer cancelRender()

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`document.documentElement.outerHTML`, &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
