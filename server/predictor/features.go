package predictor

import (
	"fmt"

	"github.com/yatrasecure/safetyscore/server/ml"
	"github.com/yatrasecure/safetyscore/server/models"
)

// Night-conditioned runtime constants and neutral defaults for features the
// caller cannot observe. Overrides win where provided.
const (
	lightingNight = 0.4
	lightingDay   = 0.9
	trafficNight  = 0.3
	trafficDay    = 0.7

	defaultCCTVDensity   = 0.6
	defaultPoliceMinutes = 15.0
	defaultTheft         = 0.35
	defaultAssault       = 5.0
	defaultHotspotKm     = 1.5
	defaultRefugeM       = 250
	defaultVisibility    = 0.55
	defaultNoiseDB       = 70.0
	defaultSentiment     = 0.6
	defaultPublicTrust   = 0.55
	defaultTraumaKm      = 5.0
	defaultSoloRisk      = 0.5
)

const defaultAreaClass = models.AreaTownCenter

// buildFeatures assembles the exact vector the trainer persisted, in the
// same column order, estimating the unobservable fields. Categoricals go
// through the persisted encoders; out-of-vocabulary values get code 0.
func buildFeatures(enc ml.Encoders, lat, lon float64, hour int, ov *models.Overrides) ([]float64, error) {
	if ov == nil {
		ov = &models.Overrides{}
	}

	h := ((hour % 24) + 24) % 24
	night := ml.IsNight(h)

	city := nearestCity(lat, lon)
	crimeRate := city.crimeRate
	if ov.CrimeRatePer100K != nil {
		crimeRate = *ov.CrimeRatePer100K
	}

	lighting := lightingDay
	traffic := trafficDay
	if night {
		lighting = lightingNight
		traffic = trafficNight
	}

	cctv := defaultCCTVDensity
	if ov.CCTVDensity != nil {
		cctv = *ov.CCTVDensity
	}
	police := defaultPoliceMinutes
	if ov.PoliceResponseMin != nil {
		police = *ov.PoliceResponseMin
	}
	area := defaultAreaClass
	if ov.AreaClassification != nil {
		area = *ov.AreaClassification
	}
	weekend := false
	if ov.IsWeekend != nil {
		weekend = *ov.IsWeekend
	}

	// More lighting, fewer shadows; mirrors the synthesizer relationship.
	shadow := 1 - 0.5*lighting

	vec := []float64{
		lat, lon,
		float64(enc.CodeOrDefault("state", city.state)),
		float64(enc.CodeOrDefault("city_district", city.name)),
		float64(enc.CodeOrDefault("area_classification", string(area))),
		float64(h), boolToFloat(night), boolToFloat(weekend),
		crimeRate, defaultTheft, defaultAssault, defaultHotspotKm,
		lighting, cctv, police, float64(defaultRefugeM),
		defaultVisibility, shadow, defaultNoiseDB,
		defaultSentiment, traffic, defaultPublicTrust,
		defaultTraumaKm, 0, defaultSoloRisk,
	}
	if want := len(ml.FeatureColumns()); len(vec) != want {
		return nil, fmt.Errorf("built %d features, model expects %d", len(vec), want)
	}
	return vec, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
