package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pallet-backend/internal/cache"
	"pallet-backend/internal/metrics"
)

// ErrUnsupported is returned by a source that has no data for a widget
var ErrUnsupported = errors.New("no data source for widget")

// Query identifies one widget's data request
type Query struct {
	Theme     string `json:"theme"`
	Widget    Widget `json:"widget"`
	TimeRange string `json:"time_range"`
}

// Source produces widget data
type Source interface {
	Fetch(ctx context.Context, q Query) (any, error)
}

type SourceFunc func(ctx context.Context, q Query) (any, error)

func (f SourceFunc) Fetch(ctx context.Context, q Query) (any, error) { return f(ctx, q) }

// Store is the batched value cache in front of the sources
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

type redisStore struct{}

func (redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	return cache.GetCached(ctx, key)
}

func (redisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	cache.SetCached(ctx, key, data, ttl)
}

// RedisStore is the Store backed by the shared redis client
func RedisStore() Store { return redisStore{} }

// Result is widget data plus where it came from
type Result struct {
	Data   json.RawMessage `json:"data"`
	Source string          `json:"source"`
}

type namedSource struct {
	name string
	src  Source
}

// Fetcher resolves widget data from the cache, then the batch source, then
// the per-widget source. The first success is cached.
type Fetcher struct {
	Store   Store
	sources []namedSource
}

func NewFetcher(store Store, batch, rpc Source) *Fetcher {
	f := &Fetcher{Store: store}
	if batch != nil {
		f.sources = append(f.sources, namedSource{"batch", batch})
	}
	if rpc != nil {
		f.sources = append(f.sources, namedSource{"rpc", rpc})
	}
	return f
}

// CacheKey hashes the query, widget config included
func CacheKey(q Query) string {
	return cache.QueryKey(cache.DashboardPrefix+q.Theme+":", q.Widget, q.TimeRange)
}

// TTLFor is 5 minutes for charts and 2 for everything else
func TTLFor(w Widget) time.Duration {
	if w.Type == "chart" {
		return cache.ChartTTL
	}
	return cache.StatsTTL
}

func (f *Fetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	key := CacheKey(q)

	if f.Store != nil {
		if data, ok := f.Store.Get(ctx, key); ok {
			metrics.DashboardCacheRequests.WithLabelValues("hit").Inc()
			return &Result{Data: data, Source: "cache"}, nil
		}
		metrics.DashboardCacheRequests.WithLabelValues("miss").Inc()
	}

	data, name, err := f.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	if f.Store != nil {
		f.Store.Set(ctx, key, data, TTLFor(q.Widget))
	}
	return &Result{Data: data, Source: name}, nil
}

// Compute runs the sources without touching the cache. Used by pre-warm.
func (f *Fetcher) Compute(ctx context.Context, q Query) ([]byte, error) {
	data, _, err := f.compute(ctx, q)
	return data, err
}

func (f *Fetcher) compute(ctx context.Context, q Query) ([]byte, string, error) {
	lastErr := ErrUnsupported
	for _, s := range f.sources {
		v, err := s.src.Fetch(ctx, q)
		if err != nil {
			if !errors.Is(err, ErrUnsupported) {
				log.Printf("[Dashboard] %s source failed for %s/%s: %v", s.name, q.Theme, q.Widget.GridArea, err)
				lastErr = err
			}
			continue
		}

		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encode widget data: %w", err)
		}
		return data, s.name, nil
	}
	return nil, "", lastErr
}

// RegisterPreWarm registers every data widget of a theme for cache pre-warm
// at the default time range.
func (f *Fetcher) RegisterPreWarm(theme string) {
	layout := LayoutFor(theme)
	for _, w := range layout.Widgets {
		if w.DataSource == "" {
			continue
		}
		q := Query{Theme: layout.Theme, Widget: w, TimeRange: DefaultTimeRange}
		cache.RegisterPreWarm(CacheKey(q), TTLFor(w), func(ctx context.Context) ([]byte, error) {
			return f.Compute(ctx, q)
		})
	}
}
