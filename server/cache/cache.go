package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/yatrasecure/safetyscore/server/models"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds recent prediction payloads. Entries are TTL-bound and
// ephemeral; nothing here survives the process or backs any history.
type Cache interface {
	Set(ctx context.Context, key string, value *models.SafetyPrediction) error

	Get(ctx context.Context, key string) (*models.SafetyPrediction, error)

	Delete(ctx context.Context, key string) error

	SetWithTTL(ctx context.Context, key string, value *models.SafetyPrediction, ttl time.Duration) error

	GetStats(ctx context.Context) (*CacheStats, error)

	Close() error
}

type CacheStats struct {
	Connected bool   `json:"connected"`
	Info      string `json:"info"`
}

// PredictionKey derives a cache key from the prediction inputs.
// Coordinates are bucketed to 4 decimal places (~11m) so nearby repeat
// queries share an entry.
func PredictionKey(lat, lon float64, hour int, overrides *models.Overrides) string {
	components := fmt.Sprintf("%.4f|%.4f|%d", lat, lon, hour)
	if overrides != nil {
		components += "|" + overridesKey(overrides)
	}
	return GenerateCacheKey("predict", components)
}

func overridesKey(ov *models.Overrides) string {
	s := ""
	if ov.CCTVDensity != nil {
		s += fmt.Sprintf("cctv=%.3f;", *ov.CCTVDensity)
	}
	if ov.PoliceResponseMin != nil {
		s += fmt.Sprintf("police=%.2f;", *ov.PoliceResponseMin)
	}
	if ov.AreaClassification != nil {
		s += fmt.Sprintf("area=%s;", *ov.AreaClassification)
	}
	if ov.IsWeekend != nil {
		s += fmt.Sprintf("weekend=%t;", *ov.IsWeekend)
	}
	if ov.CrimeRatePer100K != nil {
		s += fmt.Sprintf("crime=%.2f;", *ov.CrimeRatePer100K)
	}
	return s
}

func GenerateCacheKey(components ...string) string {
	h := md5.New()
	for _, component := range components {
		h.Write([]byte(component))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
