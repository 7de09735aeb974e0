// Package adapters defines the contract every upstream price source
// implements. An adapter wraps one upstream's transport and normalization;
// its failures stay its own. The aggregator treats a returned error the same
// as an empty slice — errors exist so failures can be logged, never so they
// can propagate.
package adapters

import (
	"context"

	"compare-base/pkg/models"
)

type Adapter interface {
	// Name identifies the adapter in logs and fixes its merge priority.
	Name() string
	// Configured reports whether the adapter has the credentials (or the
	// explicit opt-in) it needs. Unconfigured adapters are skipped, not tried.
	Configured() bool
	// Fetch returns zero or more normalized offers for the query. The pincode
	// is an optional regional qualifier passed through unmodified. Fetch must
	// honor ctx cancellation and must not panic on malformed upstream data.
	Fetch(ctx context.Context, query, pincode string) ([]models.Offer, error)
}
