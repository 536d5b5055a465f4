package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes
const (
	DashboardPrefix     = "dashboard:"
	PalletHistoryPrefix = "pallet:history:"
	VoidReportPrefix    = "reports:void:"
)

// Widget TTLs
const (
	StatsTTL = 2 * time.Minute
	ChartTTL = 5 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection. On failure the client stays nil
// and every cache call becomes a no-op.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// Close releases the connection pool
func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

// QueryKey builds prefix + a short hash of the JSON form of parts, so two
// callers asking the same query with the same config share one entry.
func QueryKey(prefix string, parts ...any) string {
	b, err := json.Marshal(parts)
	if err != nil {
		log.Printf("[Redis] Failed to encode cache key parts: %v", err)
		return ""
	}
	h := sha256.Sum256(b)
	return prefix + hex.EncodeToString(h[:])[:32]
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil || key == "" {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil || key == "" {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// GetJSON decodes a cached value into v
func GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := GetCached(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and caches it
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	SetCached(ctx, key, data, ttl)
}

// ============================================
// Cache Invalidation Functions
// ============================================

const scanBatch = 500

// InvalidatePattern removes all keys matching a glob pattern. It walks the
// keyspace with SCAN so redis is never blocked by a full KEYS pass.
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys := make([]string, 0, scanBatch)
	iter := client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			InvalidateKeys(ctx, keys...)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[Redis] Scan %s failed: %v", pattern, err)
	}
	InvalidateKeys(ctx, keys...)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidatePalletCaches clears history lookups and dashboard data
// Called when: VoidPallet, ProcessDamage, AutoReprint
func InvalidatePalletCaches(ctx context.Context) {
	InvalidatePattern(ctx, PalletHistoryPrefix+"*")
	InvalidatePattern(ctx, DashboardPrefix+"*")
	InvalidatePattern(ctx, VoidReportPrefix+"*")
}

// ============================================
// Pre-warm Cache Functions
// ============================================

// PreWarmCallback is a function that populates a cache key
type PreWarmCallback func(ctx context.Context) ([]byte, error)

type preWarmEntry struct {
	callback PreWarmCallback
	ttl      time.Duration
}

// preWarmCallbacks stores functions to pre-warm cache on startup
var preWarmCallbacks = make(map[string]preWarmEntry)

// RegisterPreWarm registers a callback to pre-warm a cache key
func RegisterPreWarm(key string, ttl time.Duration, callback PreWarmCallback) {
	preWarmCallbacks[key] = preWarmEntry{callback: callback, ttl: ttl}
}

// PreWarmCache fills registered keys that are not cached yet
func PreWarmCache() {
	if client == nil {
		return
	}

	ctx := context.Background()

	for key, entry := range preWarmCallbacks {
		// Check if already cached (another pod may have done it)
		if _, ok := GetCached(ctx, key); ok {
			continue
		}

		data, err := entry.callback(ctx)
		if err != nil {
			log.Printf("[Redis] Pre-warm of %s failed: %v", key, err)
			continue
		}

		SetCached(ctx, key, data, entry.ttl)
	}
}

// PreWarmDashboard re-runs every registered dashboard pre-warm in the
// background. Called after InvalidatePalletCaches.
func PreWarmDashboard() {
	if client == nil {
		return
	}
	for key, entry := range preWarmCallbacks {
		if strings.HasPrefix(key, DashboardPrefix) {
			PreWarmKey(key, entry.callback, entry.ttl)
		}
	}
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// PreWarmKey pre-warms a specific cache key in the background
// This is non-blocking - runs in a goroutine
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	if client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			// next request will just fetch from DB
			return
		}

		SetCached(ctx, key, data, ttl)
	}()
}
