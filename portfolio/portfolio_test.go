package portfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propsight/propsight-go/apiclient"
	"github.com/propsight/propsight-go/cache"
)

// fakeAPI is a minimal in-memory portfolio backend.
type fakeAPI struct {
	listHits atomic.Int32
	nextID   atomic.Int32
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /portfolio/properties", func(w http.ResponseWriter, r *http.Request) {
		f.listHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","address":"12 River Rd"}]`))
	})
	mux.HandleFunc("GET /portfolio/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Property{ID: r.PathValue("id"), Address: "12 River Rd"})
	})
	mux.HandleFunc("POST /portfolio/properties", func(w http.ResponseWriter, r *http.Request) {
		var input Input
		_ = json.NewDecoder(r.Body).Decode(&input)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Property{
			ID:      "p" + string(rune('1'+f.nextID.Add(1))),
			Address: input.Address,
		})
	})
	mux.HandleFunc("PUT /portfolio/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		var input Input
		_ = json.NewDecoder(r.Body).Decode(&input)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Property{ID: r.PathValue("id"), Address: input.Address})
	})
	mux.HandleFunc("DELETE /portfolio/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newFixture(t *testing.T) (*Service, *cache.Store, *fakeAPI, func()) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())

	client, err := apiclient.New(srv.URL,
		apiclient.WithMaxRetries(0),
		apiclient.WithTimeout(2*time.Second),
	)
	require.NoError(t, err)

	store := cache.NewStore(cache.NewMemoryBackend(0))
	return New(client, WithStore(store)), store, api, srv.Close
}

func TestListUsesCache(t *testing.T) {
	svc, _, api, closeSrv := newFixture(t)
	defer closeSrv()
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, api.listHits.Load())
}

func TestCreateInvalidatesListAndSearch(t *testing.T) {
	svc, store, api, closeSrv := newFixture(t)
	defer closeSrv()
	ctx := context.Background()

	// Prime the portfolio list plus a market search entry in the shared store.
	_, err := svc.List(ctx)
	require.NoError(t, err)
	store.Set("/market/search", map[string]string{"q": "river", "exclude_owned": "true"}, []string{"l1"}, time.Hour)
	store.Set("/market/summary", map[string]string{"region": "east"}, "summary", time.Hour)

	created, err := svc.Create(ctx, Input{Address: "8 Dockside Ave"})
	require.NoError(t, err)
	require.Equal(t, "8 Dockside Ave", created.Address)

	_, ok := store.Get("/market/search", map[string]string{"q": "river", "exclude_owned": "true"})
	require.False(t, ok, "search family must be invalidated")
	_, ok = store.Get("/market/summary", map[string]string{"region": "east"})
	require.True(t, ok, "summaries are untouched by portfolio mutations")

	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, api.listHits.Load(), "list re-fetches after invalidation")
}

func TestUpdateAndDeleteInvalidate(t *testing.T) {
	svc, store, _, closeSrv := newFixture(t)
	defer closeSrv()
	ctx := context.Background()

	_, err := svc.Get(ctx, "p1")
	require.NoError(t, err)
	_, ok := store.Get("/portfolio/properties/p1", nil)
	require.True(t, ok)

	updated, err := svc.Update(ctx, "p1", Input{Address: "12 River Rd, Unit 2"})
	require.NoError(t, err)
	require.Equal(t, "12 River Rd, Unit 2", updated.Address)

	_, ok = store.Get("/portfolio/properties/p1", nil)
	require.False(t, ok, "update must invalidate the cached read")

	_, err = svc.Get(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "p1"))

	_, ok = store.Get("/portfolio/properties/p1", nil)
	require.False(t, ok, "delete must invalidate the cached read")
}

func TestMutationErrorDoesNotInvalidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"field":"address","msg":"required"}]}`))
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL, apiclient.WithMaxRetries(0))
	require.NoError(t, err)
	store := cache.NewStore(cache.NewMemoryBackend(0))
	svc := New(client, WithStore(store))

	store.Set(basePath, nil, []string{"cached"}, time.Hour)

	_, err = svc.Create(context.Background(), Input{})
	require.Error(t, err)

	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, "address: required", apiErr.Message)

	_, ok := store.Get(basePath, nil)
	require.True(t, ok, "failed mutation leaves the cache alone")
}
