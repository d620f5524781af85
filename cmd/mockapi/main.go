// Command mockapi is a local stand-in for the PropSight backend, serving
// deterministic market data and an in-memory portfolio so the SDK and CLI can
// be developed offline. The -flaky flag fails the first attempt of every
// logical request with a 503, which makes the client's retry behavior easy to
// observe.
package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flaky := flag.Bool("flaky", false, "fail the first attempt of every request with 503")
	token := flag.String("token", "dev-token", "bearer token required for portfolio mutations")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	srv := newServer(*token, *flaky)
	handler := hlog.NewHandler(logger)(srv.router())

	logger.Info().Str("addr", *addr).Bool("flaky", *flaky).Msg("mockapi listening")
	if err := http.ListenAndServe(*addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

type server struct {
	token string
	flaky bool

	mu         sync.Mutex
	seen       map[string]bool // request IDs that already burned their failure
	properties map[string]property
}

func newServer(token string, flaky bool) *server {
	return &server{
		token: token,
		flaky: flaky,
		seen:  make(map[string]bool),
		properties: map[string]property{
			"p1": {ID: "p1", Address: "12 River Rd", City: "Eastport", Region: "east", PurchasePrice: 380000, CurrentValue: 452000},
		},
	}
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.flakiness)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/market", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/autocomplete", s.handleAutocomplete)
		r.Get("/summary", s.handleSummary)
		r.Get("/tax-rates", s.handleTaxRates)
	})

	r.Route("/portfolio/properties", func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/", s.handleListProperties)
		r.Post("/", s.handleCreateProperty)
		r.Get("/{id}", s.handleGetProperty)
		r.Put("/{id}", s.handleUpdateProperty)
		r.Delete("/{id}", s.handleDeleteProperty)
	})

	return r
}

// flakiness fails the first attempt of each logical request (identified by
// the client's X-Request-ID) so retries succeed on the second try.
func (s *server) flakiness(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.flaky {
			next.ServeHTTP(w, r)
			return
		}
		id := r.Header.Get("X-Request-ID")
		s.mu.Lock()
		burned := s.seen[id]
		if id != "" {
			s.seen[id] = true
		}
		s.mu.Unlock()

		if id != "" && !burned {
			hlog.FromRequest(r).Info().Str("request_id", id).Msg("flaky: failing first attempt")
			writeError(w, http.StatusServiceUnavailable, "transient failure, try again")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || got != s.token {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var regions = map[string]struct {
	median   int64
	sqft     float64
	active   int
	sold     int
	yoy      float64
	taxPct   float64
	transfer float64
	exempt   int64
}{
	"east":  {420000, 310, 134, 41, 3.2, 1.10, 0.50, 50000},
	"west":  {615000, 455, 89, 27, -1.4, 0.95, 0.75, 75000},
	"north": {335000, 240, 210, 66, 5.8, 1.35, 0.25, 40000},
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	data, ok := regions[region]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region":            region,
		"median_price":      data.median,
		"price_per_sqft":    data.sqft,
		"active_listings":   data.active,
		"sold_last_30_days": data.sold,
		"yoy_change_pct":    data.yoy,
	})
}

func (s *server) handleTaxRates(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	data, ok := regions[region]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region":              region,
		"property_tax_pct":    data.taxPct,
		"transfer_tax_pct":    data.transfer,
		"homestead_exemption": data.exempt,
	})
}

var listings = []map[string]any{
	{"id": "l1", "address": "12 River Rd", "city": "Eastport", "region": "east", "price": 450000, "beds": 3, "baths": 2.0, "square_feet": 1650, "listed_at": time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)},
	{"id": "l2", "address": "8 Dockside Ave", "city": "Eastport", "region": "east", "price": 389000, "beds": 2, "baths": 1.5, "square_feet": 1210, "listed_at": time.Date(2026, 7, 18, 0, 0, 0, 0, time.UTC)},
	{"id": "l3", "address": "301 Hillcrest Dr", "city": "Northfield", "region": "north", "price": 299000, "beds": 3, "baths": 2.0, "square_feet": 1480, "listed_at": time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	region := r.URL.Query().Get("region")

	results := make([]map[string]any, 0)
	for _, l := range listings {
		if region != "" && l["region"] != region {
			continue
		}
		address, _ := l["address"].(string)
		city, _ := l["city"].(string)
		if q != "" && !strings.Contains(strings.ToLower(address), q) && !strings.Contains(strings.ToLower(city), q) {
			continue
		}
		results = append(results, l)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	suggestions := make([]map[string]string, 0)
	for _, candidate := range []struct{ value, kind string }{
		{"Eastport", "city"}, {"Northfield", "city"},
		{"east", "region"}, {"west", "region"}, {"north", "region"},
	} {
		if q == "" || strings.HasPrefix(strings.ToLower(candidate.value), q) {
			suggestions = append(suggestions, map[string]string{"value": candidate.value, "kind": candidate.kind})
		}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

type property struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	PurchasePrice int64     `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	CurrentValue  int64     `json:"current_value"`
	Notes         string    `json:"notes,omitempty"`
}
