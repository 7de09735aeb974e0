// Package history keeps a small sqlite log of past compare calls: the query,
// how many offers came back, whether the response was demo data, and the
// cheapest price seen. Offers themselves are never persisted; each query is
// resolved fresh.
package history

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"compare-base/pkg/logger"
	"compare-base/pkg/models"
)

type Store struct {
	db *sql.DB
}

// Entry is one recorded compare call.
type Entry struct {
	Query         string    `json:"query"`
	OfferCount    int       `json:"offerCount"`
	IsDemo        bool      `json:"isDemo"`
	CheapestPrice int       `json:"cheapestPrice"`
	SearchedAt    time.Time `json:"searchedAt"`
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			offer_count INTEGER NOT NULL,
			is_demo INTEGER NOT NULL,
			cheapest_price INTEGER NOT NULL,
			searched_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Record logs one comparison. Failures are logged and swallowed; history is
// best-effort and must never fail a compare call.
func (s *Store) Record(query string, comparison *models.Comparison) {
	cheapest := 0
	isDemo := false
	if len(comparison.Results) > 0 {
		isDemo = comparison.Results[0].IsDemo
		cheapest = comparison.Results[0].Price
		for _, offer := range comparison.Results[1:] {
			if offer.Price < cheapest {
				cheapest = offer.Price
			}
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO searches (query, offer_count, is_demo, cheapest_price, searched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		query, len(comparison.Results), isDemo, cheapest, time.Now().UTC(),
	)
	if err != nil {
		logger.Dedup("History: failed to record search %q: %v", query, err)
	}
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT query, offer_count, is_demo, cheapest_price, searched_at
		 FROM searches ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Query, &e.OfferCount, &e.IsDemo, &e.CheapestPrice, &e.SearchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
