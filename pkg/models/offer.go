package models

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrEmptyQuery = errors.New("search query cannot be empty")

// Offer is one normalized price record for a product at one storefront.
// Prices are whole rupees. OriginalPrice is only set when it is strictly
// greater than Price.
type Offer struct {
	Site          string  `json:"site"`
	Price         int     `json:"price"`
	OriginalPrice int     `json:"originalPrice,omitempty"`
	URL           string  `json:"url"`
	Rating        float64 `json:"rating,omitempty"`
	Availability  string  `json:"availability"`
	IsDemo        bool    `json:"isDemo"`
}

const (
	InStock      = "In Stock"
	LimitedStock = "Limited Stock"
)

// Comparison is the result of one compare call: the merged offer list plus a
// provenance note telling the caller whether the data is live or synthetic.
type Comparison struct {
	Results []Offer `json:"results"`
	Note    string  `json:"note"`
}

// SearchURL builds a generic storefront search link, used whenever an
// upstream record carries no product-specific URL.
func SearchURL(siteHost, query string) string {
	return fmt.Sprintf("https://%s/search?q=%s", siteHost, url.QueryEscape(query))
}
