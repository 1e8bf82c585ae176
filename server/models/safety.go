package models

// AreaClass buckets the urban/rural character of a location. The synthetic
// feature distributions are conditioned on it.
type AreaClass string

const (
	AreaMetroCommercial     AreaClass = "metro-commercial"
	AreaMetroResidential    AreaClass = "metro-residential"
	AreaIndustrial          AreaClass = "industrial"
	AreaTouristHub          AreaClass = "tourist-hub"
	AreaSubUrbanResidential AreaClass = "sub-urban-residential"
	AreaRuralVillage        AreaClass = "rural-village"
	AreaTownCenter          AreaClass = "town-center"
	AreaHighwayAdjacent     AreaClass = "highway-adjacent"
)

// IsMetro reports whether the class belongs to the high-density metro regime.
func (a AreaClass) IsMetro() bool {
	switch a {
	case AreaMetroCommercial, AreaMetroResidential, AreaTouristHub:
		return true
	}
	return false
}

type SafetyLevel string

const (
	LevelSafe     SafetyLevel = "safe"
	LevelModerate SafetyLevel = "moderate"
	LevelCaution  SafetyLevel = "caution"
)

type SafetyColor string

const (
	ColorGreen  SafetyColor = "green"
	ColorYellow SafetyColor = "yellow"
	ColorRed    SafetyColor = "red"
)

// Estimator tags which path produced a prediction.
type Estimator string

const (
	EstimatorModel    Estimator = "model"
	EstimatorFallback Estimator = "fallback"
)

// LocationRecord is one synthetic training row. Records are immutable once
// written to the dataset; SafetyScore is the derived ground-truth label in
// [0,100].
type LocationRecord struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	State              string    `json:"state"`
	CityDistrict       string    `json:"city_district"`
	AreaClassification AreaClass `json:"area_classification"`

	TimeOfDay string `json:"time_of_day"`
	DayOfWeek string `json:"day_of_week"`

	CrimeRatePer100K           float64 `json:"crime_rate_per_100k"`
	TheftFrequencyIndex        float64 `json:"theft_frequency_index"`
	AssaultSeverityIndex       float64 `json:"assault_severity_index"`
	IncidentHotspotProximityKm float64 `json:"incident_hotspot_proximity_km"`

	StreetLightingIndex   float64 `json:"street_lighting_index"`
	CCTVDensityScore      float64 `json:"cctv_density_score"`
	PoliceResponseTimeMin float64 `json:"police_response_time_min"`
	RefugePointProximityM int     `json:"refuge_point_proximity_m"`

	VisibilityScoreIndex       float64 `json:"visibility_score_index"`
	ShadowMappingIndexNight    float64 `json:"shadow_mapping_index_night"`
	NoisePollutionDB           float64 `json:"noise_pollution_db"`
	LocalSentimentIndex        float64 `json:"local_sentiment_index"`
	TemporalFootTrafficDensity float64 `json:"temporal_foot_traffic_density"`
	PublicTrustIndex           float64 `json:"public_trust_index"`
	TraumaCenterProximityKm    float64 `json:"trauma_center_proximity_km"`
	AnomalyAlert               bool    `json:"anomaly_alert"`
	SoloTravelerRiskFactor     float64 `json:"solo_traveler_risk_factor"`

	SafetyScore float64 `json:"safety_score"`
}

// SafetyPrediction is the inference payload consumed by the web layer.
// Scores are on the 1-10 runtime scale.
type SafetyPrediction struct {
	Score           float64     `json:"safety_score"`
	Level           SafetyLevel `json:"safety_level"`
	Color           SafetyColor `json:"color"`
	Recommendations []string    `json:"recommendations"`
	Estimator       Estimator   `json:"estimator"`
}

// Overrides carries the optional per-call inputs a caller may know better
// than the service's defaults. Nil fields keep the defaults.
type Overrides struct {
	CCTVDensity        *float64   `json:"cctv_density,omitempty"`
	PoliceResponseMin  *float64   `json:"police_response,omitempty"`
	AreaClassification *AreaClass `json:"area_classification,omitempty"`
	IsWeekend          *bool      `json:"is_weekend,omitempty"`
	CrimeRatePer100K   *float64   `json:"crime_rate_per_100k,omitempty"`
}
