// Package demo generates plausible synthetic offers for when every upstream
// source comes back empty. A valid query must never produce zero results, so
// the aggregator falls back to this generator as the last tier.
package demo

import (
	"math/rand"
	"sync"

	"compare-base/pkg/extract"
	"compare-base/pkg/models"
)

// Site describes one storefront the generator fabricates offers for.
type Site struct {
	Name      string
	Host      string
	MinRating float64
	MaxRating float64
}

// DefaultSites mirrors the storefronts the front end knows how to render.
var DefaultSites = []Site{
	{Name: "Amazon.in", Host: "www.amazon.in", MinRating: 4.0, MaxRating: 4.8},
	{Name: "Flipkart", Host: "www.flipkart.com", MinRating: 3.8, MaxRating: 4.6},
	{Name: "Myntra", Host: "www.myntra.com", MinRating: 4.2, MaxRating: 4.7},
}

const (
	minBasePrice = 5000
	maxBasePrice = 55000

	priceVariance     = 0.15 // each site's price is base ± 15%
	discountChance    = 0.6
	minDiscountMarkup = 0.10
	maxDiscountMarkup = 0.30 // markup is 10% plus up to 30% more
	inStockChance     = 0.8
)

// Generator fabricates demo offers. One Generator is shared across
// concurrent compare calls and *rand.Rand is not safe for concurrent use,
// so Generate serializes its draws.
type Generator struct {
	sites []Site

	mu  sync.Mutex
	rnd *rand.Rand
}

func New() *Generator {
	return NewWithRand(rand.New(rand.NewSource(rand.Int63())))
}

// NewWithRand returns a Generator drawing from rnd, so tests can pin the
// exact values produced.
func NewWithRand(rnd *rand.Rand) *Generator {
	return &Generator{sites: DefaultSites, rnd: rnd}
}

// Generate fabricates one offer per configured site around a single random
// base price. The query is only used to build the placeholder search URLs.
func (g *Generator) Generate(query string) []models.Offer {
	g.mu.Lock()
	defer g.mu.Unlock()

	basePrice := g.rnd.Intn(maxBasePrice-minBasePrice) + minBasePrice

	offers := make([]models.Offer, 0, len(g.sites))
	for _, site := range g.sites {
		variance := g.rnd.Float64()*2*priceVariance - priceVariance
		price := int(float64(basePrice) * (1 + variance))

		offer := models.Offer{
			Site:         site.Name,
			Price:        price,
			URL:          models.SearchURL(site.Host, query),
			Rating:       extract.RoundRating(site.MinRating + g.rnd.Float64()*(site.MaxRating-site.MinRating)),
			Availability: models.InStock,
			IsDemo:       true,
		}

		if g.rnd.Float64() < discountChance {
			markup := minDiscountMarkup + g.rnd.Float64()*maxDiscountMarkup
			offer.OriginalPrice = int(float64(price) * (1 + markup))
		}

		if g.rnd.Float64() >= inStockChance {
			offer.Availability = models.LimitedStock
		}

		offers = append(offers, offer)
	}
	return offers
}
