package synth

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yatrasecure/safetyscore/server/models"
)

// DatasetColumns is the CSV header, in the exact order rows are written.
// The trainer resolves fields by these names, not by position.
var DatasetColumns = []string{
	"latitude", "longitude", "state", "city_district", "area_classification",
	"time_of_day", "day_of_week",
	"crime_rate_per_100k", "theft_frequency_index", "assault_severity_index",
	"incident_hotspot_proximity_km",
	"street_lighting_index", "cctv_density_score", "police_response_time_min",
	"refuge_point_proximity_m",
	"visibility_score_index", "shadow_mapping_index_night", "noise_pollution_db",
	"local_sentiment_index", "temporal_foot_traffic_density", "public_trust_index",
	"trauma_center_proximity_km", "anomaly_alert", "solo_traveler_risk_factor",
	"safety_score",
}

// WriteDataset writes records as CSV. The file is written to a temp sibling
// and renamed into place so a failed write never leaves a partial dataset.
func WriteDataset(path string, records []models.LocationRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("refusing to write empty dataset to %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp dataset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(DatasetColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset header: %w", err)
	}
	for i := range records {
		if err := w.Write(recordRow(&records[i])); err != nil {
			tmp.Close()
			return fmt.Errorf("write dataset row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp dataset file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// ReadDataset parses a dataset written by WriteDataset. Column order is
// taken from the header row.
func ReadDataset(path string) ([]models.LocationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range DatasetColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("dataset %s missing column %q", path, name)
		}
	}

	records := make([]models.LocationRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordRow(r *models.LocationRecord) []string {
	return []string{
		ftoa(r.Latitude), ftoa(r.Longitude), r.State, r.CityDistrict,
		string(r.AreaClassification), r.TimeOfDay, r.DayOfWeek,
		ftoa(r.CrimeRatePer100K), ftoa(r.TheftFrequencyIndex),
		ftoa(r.AssaultSeverityIndex), ftoa(r.IncidentHotspotProximityKm),
		ftoa(r.StreetLightingIndex), ftoa(r.CCTVDensityScore),
		ftoa(r.PoliceResponseTimeMin), strconv.Itoa(r.RefugePointProximityM),
		ftoa(r.VisibilityScoreIndex), ftoa(r.ShadowMappingIndexNight),
		ftoa(r.NoisePollutionDB), ftoa(r.LocalSentimentIndex),
		ftoa(r.TemporalFootTrafficDensity), ftoa(r.PublicTrustIndex),
		ftoa(r.TraumaCenterProximityKm), strconv.FormatBool(r.AnomalyAlert),
		ftoa(r.SoloTravelerRiskFactor), ftoa(r.SafetyScore),
	}
}

func parseRow(row []string, col map[string]int) (models.LocationRecord, error) {
	var rec models.LocationRecord
	var err error

	get := func(name string) string { return row[col[name]] }
	getF := func(name string, dst *float64) {
		if err != nil {
			return
		}
		var v float64
		if v, err = strconv.ParseFloat(get(name), 64); err != nil {
			err = fmt.Errorf("column %q: %w", name, err)
			return
		}
		*dst = v
	}

	getF("latitude", &rec.Latitude)
	getF("longitude", &rec.Longitude)
	rec.State = get("state")
	rec.CityDistrict = get("city_district")
	rec.AreaClassification = models.AreaClass(get("area_classification"))
	rec.TimeOfDay = get("time_of_day")
	rec.DayOfWeek = get("day_of_week")
	getF("crime_rate_per_100k", &rec.CrimeRatePer100K)
	getF("theft_frequency_index", &rec.TheftFrequencyIndex)
	getF("assault_severity_index", &rec.AssaultSeverityIndex)
	getF("incident_hotspot_proximity_km", &rec.IncidentHotspotProximityKm)
	getF("street_lighting_index", &rec.StreetLightingIndex)
	getF("cctv_density_score", &rec.CCTVDensityScore)
	getF("police_response_time_min", &rec.PoliceResponseTimeMin)
	getF("visibility_score_index", &rec.VisibilityScoreIndex)
	getF("shadow_mapping_index_night", &rec.ShadowMappingIndexNight)
	getF("noise_pollution_db", &rec.NoisePollutionDB)
	getF("local_sentiment_index", &rec.LocalSentimentIndex)
	getF("temporal_foot_traffic_density", &rec.TemporalFootTrafficDensity)
	getF("public_trust_index", &rec.PublicTrustIndex)
	getF("trauma_center_proximity_km", &rec.TraumaCenterProximityKm)
	getF("solo_traveler_risk_factor", &rec.SoloTravelerRiskFactor)
	getF("safety_score", &rec.SafetyScore)
	if err != nil {
		return rec, err
	}

	refuge, err := strconv.Atoi(get("refuge_point_proximity_m"))
	if err != nil {
		return rec, fmt.Errorf("column %q: %w", "refuge_point_proximity_m", err)
	}
	rec.RefugePointProximityM = refuge

	anomaly, err := strconv.ParseBool(get("anomaly_alert"))
	if err != nil {
		return rec, fmt.Errorf("column %q: %w", "anomaly_alert", err)
	}
	rec.AnomalyAlert = anomaly

	return rec, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
