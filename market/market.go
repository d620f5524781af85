// Package market exposes typed read accessors for PropSight market data:
// listing search, autocomplete, regional summaries, and tax rates. Reads go
// through the response cache when one is attached; mutations live in the
// portfolio package.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/propsight/propsight-go/apiclient"
	"github.com/propsight/propsight-go/cache"
)

// Cache lifetimes per resource class: search and autocomplete results churn
// quickly, summaries and tax rates move slowly.
const (
	SearchTTL  = 10 * time.Minute
	SummaryTTL = 30 * time.Minute
)

// Listing is one property listing in search results.
type Listing struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	Price      int64     `json:"price"`
	Beds       int       `json:"beds"`
	Baths      float64   `json:"baths"`
	SquareFeet int       `json:"square_feet"`
	ListedAt   time.Time `json:"listed_at"`
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Value string `json:"value"`
	Kind  string `json:"kind"` // "city", "region" or "address"
}

// Summary aggregates market activity for a region.
type Summary struct {
	Region          string  `json:"region"`
	MedianPrice     int64   `json:"median_price"`
	PricePerSqft    float64 `json:"price_per_sqft"`
	ActiveListings  int     `json:"active_listings"`
	SoldLast30Days  int     `json:"sold_last_30_days"`
	YearOverYearPct float64 `json:"yoy_change_pct"`
}

// TaxRates feeds the tax calculator for a region.
type TaxRates struct {
	Region          string  `json:"region"`
	PropertyTaxPct  float64 `json:"property_tax_pct"`
	TransferTaxPct  float64 `json:"transfer_tax_pct"`
	HomesteadExempt int64   `json:"homestead_exemption"`
}

// SearchQuery narrows a listing search. Zero values are omitted.
type SearchQuery struct {
	Query        string
	Region       string
	MinPrice     int64
	MaxPrice     int64
	Beds         int
	ExcludeOwned bool
}

func (q SearchQuery) params() map[string]string {
	p := make(map[string]string)
	if q.Query != "" {
		p["q"] = q.Query
	}
	if q.Region != "" {
		p["region"] = q.Region
	}
	if q.MinPrice > 0 {
		p["min_price"] = strconv.FormatInt(q.MinPrice, 10)
	}
	if q.MaxPrice > 0 {
		p["max_price"] = strconv.FormatInt(q.MaxPrice, 10)
	}
	if q.Beds > 0 {
		p["beds"] = strconv.Itoa(q.Beds)
	}
	if q.ExcludeOwned {
		p["exclude_owned"] = "true"
	}
	return p
}

// Service bundles the request client with an optional response cache.
type Service struct {
	client *apiclient.Client
	store  *cache.Store
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStore attaches a response cache. Without one every read is live.
func WithStore(store *cache.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a market data service.
func New(client *apiclient.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CallOption adjusts a single call.
type CallOption func(*callSettings)

type callSettings struct {
	noCache bool
}

// NoCache forces a live read for this call, skipping both cache lookup and
// write-back.
func NoCache() CallOption {
	return func(cs *callSettings) { cs.noCache = true }
}

func settings(opts []CallOption) callSettings {
	var cs callSettings
	for _, o := range opts {
		o(&cs)
	}
	return cs
}

// Search returns listings matching the query. Results are cached for
// SearchTTL.
func (s *Service) Search(ctx context.Context, query SearchQuery, opts ...CallOption) ([]Listing, error) {
	raw, err := s.cachedGet(ctx, "/market/search", query.params(), SearchTTL, settings(opts))
	listings, err := apiclient.Decode[[]Listing](raw, err)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return listings, nil
}

// Autocomplete returns suggestions for a partial query. A failed call
// degrades to an empty slice: suggestions are decoration, never worth
// surfacing an error for.
func (s *Service) Autocomplete(ctx context.Context, prefix string, opts ...CallOption) ([]Suggestion, error) {
	raw, err := s.cachedGet(ctx, "/market/autocomplete", map[string]string{"q": prefix}, SearchTTL, settings(opts))
	suggestions, err := apiclient.Decode[[]Suggestion](raw, err)
	if err != nil {
		s.log.Warn().Err(err).Str("prefix", prefix).Msg("autocomplete degraded to empty")
		return []Suggestion{}, nil
	}
	return suggestions, nil
}

// Summary returns the market summary for a region, cached for SummaryTTL.
func (s *Service) Summary(ctx context.Context, region string, opts ...CallOption) (*Summary, error) {
	raw, err := s.cachedGet(ctx, "/market/summary", map[string]string{"region": region}, SummaryTTL, settings(opts))
	summary, err := apiclient.Decode[Summary](raw, err)
	if err != nil {
		return nil, fmt.Errorf("market summary %q: %w", region, err)
	}
	return &summary, nil
}

// TaxRates returns the tax rates for a region, cached for SummaryTTL.
func (s *Service) TaxRates(ctx context.Context, region string, opts ...CallOption) (*TaxRates, error) {
	raw, err := s.cachedGet(ctx, "/market/tax-rates", map[string]string{"region": region}, SummaryTTL, settings(opts))
	rates, err := apiclient.Decode[TaxRates](raw, err)
	if err != nil {
		return nil, fmt.Errorf("tax rates %q: %w", region, err)
	}
	return &rates, nil
}

// cachedGet consults the cache, falls back to a live call, and writes the
// response back on success.
func (s *Service) cachedGet(ctx context.Context, path string, params map[string]string, ttl time.Duration, cs callSettings) (json.RawMessage, error) {
	useCache := s.store != nil && !cs.noCache

	if useCache {
		if raw, ok := s.store.Get(path, params); ok {
			return raw, nil
		}
	}

	query := make(url.Values, len(params))
	for k, v := range params {
		query.Set(k, v)
	}
	raw, err := s.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	if useCache {
		s.store.Set(path, params, raw, ttl)
	}
	return raw, nil
}
