package services

import (
	"strings"

	"pallet-backend/internal/models"
)

var locationBuckets = map[string]string{
	"injection":     models.BucketInjection,
	"production":    models.BucketInjection,
	"warehouse":     models.BucketInjection,
	"qc":            models.BucketInjection,
	"shipping":      models.BucketInjection,
	"storage":       models.BucketInjection,
	"pipeline":      models.BucketPipeline,
	"prebook":       models.BucketPrebook,
	"await":         models.BucketAwait,
	"awaiting":      models.BucketAwait,
	"fold mill":     models.BucketFold,
	"bulk":          models.BucketBulk,
	"backcarpark":   models.BucketBackcarpark,
	"back car park": models.BucketBackcarpark,
}

func lookupBucket(location string) (string, bool) {
	b, ok := locationBuckets[strings.ToLower(strings.TrimSpace(location))]
	return b, ok
}

// VoidBucket maps a pallet location to the inventory bucket a void deducts
// from. Unknown locations fall back to injection.
func VoidBucket(location string) string {
	if b, ok := lookupBucket(location); ok {
		return b
	}
	return models.BucketInjection
}

// ReprintBucket maps the original location of a reprinted pallet to the
// bucket the new pallet is booked into. Unknown locations fall back to await.
func ReprintBucket(location string) string {
	if b, ok := lookupBucket(location); ok {
		return b
	}
	return models.BucketAwait
}

// IsVoidedLocation reports whether a latest location means the pallet is
// already out of stock.
func IsVoidedLocation(location string) bool {
	switch location {
	case models.LocationVoided, models.LocationVoid, models.LocationDamaged:
		return true
	}
	return false
}
