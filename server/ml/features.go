package ml

import (
	"fmt"
	"strconv"

	"github.com/yatrasecure/safetyscore/server/models"
)

// CategoricalColumns are the dataset columns that get a label encoder. All
// five are fitted and persisted; only the first three feed the model.
var CategoricalColumns = []string{
	"state", "city_district", "area_classification", "time_of_day", "day_of_week",
}

// featureColumns is the canonical model input, fixed at train time and
// persisted with the artifacts. The inference path must reproduce this list
// column-for-column.
var featureColumns = []string{
	"latitude", "longitude",
	"state_encoded", "city_district_encoded", "area_classification_encoded",
	"hour", "is_night", "is_weekend",
	"crime_rate_per_100k", "theft_frequency_index", "assault_severity_index",
	"incident_hotspot_proximity_km",
	"street_lighting_index", "cctv_density_score", "police_response_time_min",
	"refuge_point_proximity_m",
	"visibility_score_index", "shadow_mapping_index_night", "noise_pollution_db",
	"local_sentiment_index", "temporal_foot_traffic_density", "public_trust_index",
	"trauma_center_proximity_km", "anomaly_alert", "solo_traveler_risk_factor",
}

// FeatureColumns returns the ordered model input columns.
func FeatureColumns() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// IsNight uses the shared night rule: 20:00 through 06:59.
func IsNight(hour int) bool {
	return hour >= 20 || hour <= 6
}

func IsWeekend(day string) bool {
	return day == "Saturday" || day == "Sunday"
}

// HourFromTimeOfDay extracts the hour from an HH:MM:SS string.
func HourFromTimeOfDay(tod string) (int, error) {
	if len(tod) < 2 {
		return 0, fmt.Errorf("malformed time_of_day %q", tod)
	}
	hour, err := strconv.Atoi(tod[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed time_of_day %q", tod)
	}
	return hour, nil
}

// RecordVector builds the training feature vector for one record, in
// featureColumns order.
func RecordVector(rec *models.LocationRecord, enc Encoders) ([]float64, error) {
	hour, err := HourFromTimeOfDay(rec.TimeOfDay)
	if err != nil {
		return nil, err
	}

	stateCode, err := enc.MustCode("state", rec.State)
	if err != nil {
		return nil, err
	}
	cityCode, err := enc.MustCode("city_district", rec.CityDistrict)
	if err != nil {
		return nil, err
	}
	areaCode, err := enc.MustCode("area_classification", string(rec.AreaClassification))
	if err != nil {
		return nil, err
	}

	return []float64{
		rec.Latitude, rec.Longitude,
		float64(stateCode), float64(cityCode), float64(areaCode),
		float64(hour), boolToFloat(IsNight(hour)), boolToFloat(IsWeekend(rec.DayOfWeek)),
		rec.CrimeRatePer100K, rec.TheftFrequencyIndex, rec.AssaultSeverityIndex,
		rec.IncidentHotspotProximityKm,
		rec.StreetLightingIndex, rec.CCTVDensityScore, rec.PoliceResponseTimeMin,
		float64(rec.RefugePointProximityM),
		rec.VisibilityScoreIndex, rec.ShadowMappingIndexNight, rec.NoisePollutionDB,
		rec.LocalSentimentIndex, rec.TemporalFootTrafficDensity, rec.PublicTrustIndex,
		rec.TraumaCenterProximityKm, boolToFloat(rec.AnomalyAlert), rec.SoloTravelerRiskFactor,
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
