package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"

	"compare-base/pkg/adapters"
	"compare-base/pkg/adapters/amazonapi"
	"compare-base/pkg/adapters/croma"
	"compare-base/pkg/adapters/flipkartapi"
	"compare-base/pkg/adapters/flipkarthtml"
	"compare-base/pkg/aggregate"
	"compare-base/pkg/api"
	"compare-base/pkg/config"
	"compare-base/pkg/history"
	"compare-base/pkg/logger"
	"compare-base/pkg/models"
)

var (
	// Bounds concurrent compare calls to keep upstream fan-out in check.
	compareSemaphore = make(chan struct{}, 3)

	aggregator    *aggregate.Aggregator
	searchHistory *history.Store
)

func main() {
	cfg := config.Load()

	var err error
	searchHistory, err = history.New(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize search history: %v", err)
	}
	defer searchHistory.Close()

	log.Printf("Search history at %s", cfg.HistoryDBPath)

	sources := []adapters.Adapter{
		amazonapi.New(cfg.AmazonAPIKey),
		flipkartapi.New(cfg.FlipkartAPIKey),
		flipkarthtml.New(cfg.EnableHTMLScrapers && cfg.FlipkartAPIKey == ""),
		croma.New(cfg.EnableHTMLScrapers),
	}
	for _, source := range sources {
		if source.Configured() {
			log.Printf("Adapter enabled: %s", source.Name())
		}
	}

	aggregator = aggregate.New(sources, aggregate.WithAdapterTimeout(cfg.AdapterTimeout))

	http.HandleFunc("/", rootHandler)

	ip := GetOutboundIP()
	if ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), cfg.Port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s\n", cfg.Port)
	fmt.Printf("API Docs: http://localhost:%s/\n", cfg.Port)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           nil,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	err = server.ListenAndServe()
	logger.Flush()
	log.Fatal(err)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		// The search front end runs on a different origin.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	switch {
	case r.URL.Path == "/api/compare":
		compareHandler(w, r)
	case r.URL.Path == "/api/searches":
		searchesHandler(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/"):
		api.WriteError(w, http.StatusNotFound, "Not Found", "Unknown API path. Available: /api/compare, /api/searches", r.URL.Path)
	default:
		docsHandler(w, r)
	}
}

// docsHandler serves the Scalar API reference on the root path.
func docsHandler(w http.ResponseWriter, r *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Price Compare API"),
		),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

type compareRequest struct {
	Query   string `json:"query"`
	Pincode string `json:"pincode,omitempty"`
}

func compareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteBadRequest(w, "Method not allowed. Use POST with a JSON body: {\"query\": \"...\"}", r.URL.Path)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid JSON body. Expected {\"query\": \"...\"}", r.URL.Path)
		return
	}
	defer r.Body.Close()

	compareSemaphore <- struct{}{}
	defer func() { <-compareSemaphore }()

	comparison, err := aggregator.Compare(r.Context(), req.Query, req.Pincode)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			api.WriteBadRequest(w, "Valid search query is required", r.URL.Path)
			return
		}
		log.Printf("Compare failed for %q: %v", req.Query, err)
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}

	if searchHistory != nil {
		searchHistory.Record(strings.TrimSpace(req.Query), comparison)
	}

	if err := api.WriteJSON(w, comparison); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func searchesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteBadRequest(w, "Method not allowed. Use GET for recent searches.", r.URL.Path)
		return
	}

	limit := 10
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 || parsed > 100 {
			api.WriteBadRequest(w, "limit must be an integer between 1 and 100", r.URL.Path)
			return
		}
		limit = parsed
	}

	if searchHistory == nil {
		api.WriteJSON(w, []history.Entry{})
		return
	}

	entries, err := searchHistory.Recent(limit)
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	if err := api.WriteJSON(w, entries); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}
