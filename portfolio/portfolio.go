// Package portfolio exposes typed accessors for the authenticated user's
// property portfolio. Reads are cached; every successful mutation invalidates
// the portfolio read family plus cached market searches, which may include or
// exclude owned properties.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/propsight/propsight-go/apiclient"
	"github.com/propsight/propsight-go/cache"
)

// ListTTL is how long portfolio reads stay cached.
const ListTTL = 30 * time.Minute

const basePath = "/portfolio/properties"

// Property is one holding in the user's portfolio.
type Property struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	PurchasePrice int64     `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	CurrentValue  int64     `json:"current_value"`
	Notes         string    `json:"notes,omitempty"`
}

// Input carries the writable fields for create and update.
type Input struct {
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	PurchasePrice int64     `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	Notes         string    `json:"notes,omitempty"`
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

// New creates a portfolio service.
func New(client *apiclient.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every property in the portfolio.
func (s *Service) List(ctx context.Context) ([]Property, error) {
	if s.store != nil {
		if raw, ok := s.store.Get(basePath, nil); ok {
			if properties, err := apiclient.Decode[[]Property](raw, nil); err == nil {
				return properties, nil
			}
		}
	}

	raw, err := s.client.Get(ctx, basePath, nil)
	properties, err := apiclient.Decode[[]Property](raw, err)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	if s.store != nil {
		s.store.Set(basePath, nil, raw, ListTTL)
	}
	return properties, nil
}

// Get returns one property by id.
func (s *Service) Get(ctx context.Context, id string) (*Property, error) {
	path := basePath + "/" + id

	if s.store != nil {
		if raw, ok := s.store.Get(path, nil); ok {
			p, err := apiclient.Decode[Property](raw, nil)
			if err == nil {
				return &p, nil
			}
		}
	}

	raw, err := s.client.Get(ctx, path, nil)
	property, err := apiclient.Decode[Property](raw, err)
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}

	if s.store != nil {
		s.store.Set(path, nil, raw, ListTTL)
	}
	return &property, nil
}

// Create adds a property to the portfolio and invalidates cached reads that
// could now be stale.
func (s *Service) Create(ctx context.Context, input Input) (*Property, error) {
	raw, err := s.client.Post(ctx, basePath, input)
	property, err := apiclient.Decode[Property](raw, err)
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	s.invalidate()
	return &property, nil
}

// Update modifies a property and invalidates cached reads.
func (s *Service) Update(ctx context.Context, id string, input Input) (*Property, error) {
	raw, err := s.client.Put(ctx, basePath+"/"+id, input)
	property, err := apiclient.Decode[Property](raw, err)
	if err != nil {
		return nil, fmt.Errorf("update property %s: %w", id, err)
	}

	s.invalidate()
	return &property, nil
}

// Delete removes a property and invalidates cached reads.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Delete(ctx, basePath+"/"+id); err != nil {
		return fmt.Errorf("delete property %s: %w", id, err)
	}

	s.invalidate()
	return nil
}

// invalidate drops the portfolio read family and cached market searches.
// Search results can embed ownership state, so they go stale on any
// portfolio mutation.
func (s *Service) invalidate() {
	if s.store == nil {
		return
	}
	s.store.DeleteByPattern(`^` + basePath)
	s.store.DeleteByPattern(`^/market/search`)
}
