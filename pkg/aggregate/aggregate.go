// Package aggregate orchestrates the configured source adapters for one
// query: fan out, join all, merge in priority order, and fall back to
// synthetic offers when every source comes back empty. The caller is
// guaranteed a non-empty offer list for any valid query.
package aggregate

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"compare-base/pkg/adapters"
	"compare-base/pkg/demo"
	"compare-base/pkg/extract"
	"compare-base/pkg/models"
)

const (
	// MaxQueryLen caps the sanitized query length.
	MaxQueryLen = 200

	// NoteLive and NoteDemo are the provenance notes returned to the caller.
	NoteLive = "Live data from RapidAPI"
	NoteDemo = "Using demo data. Subscribe to RapidAPI for real prices."

	defaultAdapterTimeout = 12 * time.Second
)

type Aggregator struct {
	adapters       []adapters.Adapter // fixed priority order
	generator      *demo.Generator
	adapterTimeout time.Duration

	deriveMyntra bool

	// rndMu guards rnd: one Aggregator serves concurrent compares and
	// *rand.Rand is not safe for concurrent use.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Aggregator)

// WithAdapterTimeout bounds each adapter's Fetch call.
func WithAdapterTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.adapterTimeout = d }
}

// WithGenerator replaces the fallback generator, used by tests to pin the
// synthetic output.
func WithGenerator(g *demo.Generator) Option {
	return func(a *Aggregator) { a.generator = g }
}

// WithDerivedMyntraOffer appends a Myntra offer priced off the live merge
// average. Off by default so the merged list is exactly what the adapters
// returned.
func WithDerivedMyntraOffer() Option {
	return func(a *Aggregator) { a.deriveMyntra = true }
}

// WithRand replaces the rand source used for derived offers.
func WithRand(rnd *rand.Rand) Option {
	return func(a *Aggregator) { a.rnd = rnd }
}

// New builds an Aggregator over the given adapters. Slice order is merge
// priority order.
func New(sources []adapters.Adapter, opts ...Option) *Aggregator {
	a := &Aggregator{
		adapters:       sources,
		generator:      demo.New(),
		adapterTimeout: defaultAdapterTimeout,
		rnd:            rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compare resolves a query to a non-empty offer list plus a provenance note.
// It returns models.ErrEmptyQuery for blank queries before touching any
// adapter; upstream failures never surface as errors.
func (a *Aggregator) Compare(ctx context.Context, query, pincode string) (*models.Comparison, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrEmptyQuery
	}
	if len(query) > MaxQueryLen {
		// back off to a rune boundary so the cap never splits a character
		cut := MaxQueryLen
		for cut > 0 && !utf8.RuneStart(query[cut]) {
			cut--
		}
		query = query[:cut]
	}

	merged := a.fanOut(ctx, query, pincode)

	if len(merged) == 0 {
		log.Printf("No live offers for %q, falling back to demo data", query)
		return &models.Comparison{
			Results: a.generator.Generate(query),
			Note:    NoteDemo,
		}, nil
	}

	if a.deriveMyntra {
		merged = append(merged, a.derivedMyntraOffer(merged, query))
	}

	return &models.Comparison{Results: merged, Note: NoteLive}, nil
}

// fanOut runs every configured adapter concurrently and joins all of them
// before merging. A slow or failing adapter cannot suppress a sibling's
// result; it only contributes an empty slice.
func (a *Aggregator) fanOut(ctx context.Context, query, pincode string) []models.Offer {
	results := make([][]models.Offer, len(a.adapters))

	var wg sync.WaitGroup
	for i, source := range a.adapters {
		if !source.Configured() {
			continue
		}
		wg.Add(1)
		go func(i int, source adapters.Adapter) {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, source, query, pincode)
		}(i, source)
	}
	wg.Wait()

	var merged []models.Offer
	for _, offers := range results {
		merged = append(merged, offers...)
	}
	return merged
}

// fetchOne wraps a single adapter call: bounded timeout, panic recovery,
// errors downgraded to empty results.
func (a *Aggregator) fetchOne(ctx context.Context, source adapters.Adapter, query, pincode string) (offers []models.Offer) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Adapter %s panicked: %v", source.Name(), r)
			offers = nil
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
	defer cancel()

	offers, err := source.Fetch(fetchCtx, query, pincode)
	if err != nil {
		log.Printf("Adapter %s failed: %v", source.Name(), err)
		return nil
	}
	for i := range offers {
		offers[i].IsDemo = false
	}
	return offers
}

// derivedMyntraOffer fabricates one Myntra entry priced slightly under the
// merged average. Myntra has no usable price API; the front end still wants
// a third storefront column when live data is present.
func (a *Aggregator) derivedMyntraOffer(merged []models.Offer, query string) models.Offer {
	sum := 0
	for _, offer := range merged {
		sum += offer.Price
	}
	avg := sum / len(merged)

	a.rndMu.Lock()
	defer a.rndMu.Unlock()

	variance := -0.03 + (a.rnd.Float64()*0.1 - 0.05)
	price := int(float64(avg) * (1 + variance))

	offer := models.Offer{
		Site:         "Myntra",
		Price:        price,
		URL:          models.SearchURL("www.myntra.com", query),
		Rating:       extract.RoundRating(3.8 + a.rnd.Float64()*0.9),
		Availability: models.InStock,
	}
	if a.rnd.Float64() > 0.4 {
		offer.OriginalPrice = int(float64(price) * (1 + a.rnd.Float64()*0.3 + 0.1))
	}
	if a.rnd.Float64() <= 0.2 {
		offer.Availability = models.LimitedStock
	}
	return offer
}
