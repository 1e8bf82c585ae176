package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/yatrasecure/safetyscore/server/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// Label weights. Low crime, high lighting, high sentiment, low shadow, fast
// police response and high foot traffic all push the score up. The weights
// must sum to 1.0 so the score lands in [0,100] after scaling.
const (
	WeightCrime       = 0.30
	WeightLighting    = 0.20
	WeightSentiment   = 0.15
	WeightShadow      = 0.10
	WeightResponse    = 0.15
	WeightFootTraffic = 0.10
)

var indianStates = []string{
	"Maharashtra", "Uttar Pradesh", "Tamil Nadu", "West Bengal", "Karnataka",
	"Delhi", "Gujarat", "Rajasthan", "Bihar",
}

var majorCities = []string{
	"Mumbai", "Delhi", "Bengaluru", "Chennai", "Kolkata", "Hyderabad",
	"Pune", "Ahmedabad", "Jaipur", "Lucknow", "Patna",
}

// The three largest metros get the finer-grained commercial/residential/
// industrial/tourist split; everywhere else is bucketed as sub-urban, rural,
// town or highway.
var topMetros = map[string]bool{"Mumbai": true, "Delhi": true, "Bengaluru": true}

var metroAreaClasses = []models.AreaClass{
	models.AreaMetroCommercial, models.AreaMetroResidential,
	models.AreaIndustrial, models.AreaTouristHub,
}
var metroAreaWeights = []float64{0.4, 0.4, 0.1, 0.1}

var otherAreaClasses = []models.AreaClass{
	models.AreaSubUrbanResidential, models.AreaRuralVillage,
	models.AreaTownCenter, models.AreaHighwayAdjacent,
}
var otherAreaWeights = []float64{0.4, 0.3, 0.2, 0.1}

// Generator produces synthetic location records. Output is deterministic for
// a fixed seed and a fixed reference time.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed)),
		now: time.Now(),
	}
}

// NewGeneratorAt pins the reference time used for timestamp sampling, for
// reproducible datasets.
func NewGeneratorAt(seed uint64, now time.Time) *Generator {
	g := NewGenerator(seed)
	g.now = now
	return g
}

// GenerateRecords produces n records with their derived safety scores. It
// fails fast on a non-positive count; no partial output is produced.
func (g *Generator) GenerateRecords(n int) ([]models.LocationRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("record count must be positive, got %d", n)
	}

	records := make([]models.LocationRecord, n)
	for i := range records {
		rec := g.generateLocation()
		g.generateCrime(&rec)
		g.generateBehavioral(&rec)
		records[i] = rec
	}

	computeSafetyScores(records)
	return records, nil
}

func (g *Generator) generateLocation() models.LocationRecord {
	city := majorCities[g.rng.IntN(len(majorCities))]
	state := indianStates[g.rng.IntN(len(indianStates))]

	var area models.AreaClass
	var lat, lon float64
	if topMetros[city] {
		area = g.weightedChoice(metroAreaClasses, metroAreaWeights)
		lat = g.uniform(18.5, 28.7)
		lon = g.uniform(72.8, 80.2)
	} else {
		area = g.weightedChoice(otherAreaClasses, otherAreaWeights)
		lat = g.uniform(10.0, 30.0)
		lon = g.uniform(70.0, 85.0)
	}

	// Timestamps only matter for the derived hour and weekday strings.
	ts := g.now.
		Add(-time.Duration(1+g.rng.IntN(365)) * 24 * time.Hour).
		Add(-time.Duration(g.rng.IntN(24)) * time.Hour)

	return models.LocationRecord{
		Latitude:           round(lat, 6),
		Longitude:          round(lon, 6),
		State:              state,
		CityDistrict:       city,
		AreaClassification: area,
		TimeOfDay:          ts.Format("15:04:05"),
		DayOfWeek:          ts.Weekday().String(),
	}
}

func (g *Generator) generateCrime(rec *models.LocationRecord) {
	var baseCrime, baseLighting float64
	switch rec.AreaClassification {
	case models.AreaMetroCommercial, models.AreaMetroResidential, models.AreaTouristHub:
		baseCrime = g.uniform(50, 150)
		baseLighting = g.uniform(0.7, 0.95)
	case models.AreaIndustrial, models.AreaRuralVillage:
		baseCrime = g.uniform(10, 80)
		baseLighting = g.uniform(0.3, 0.6)
	default:
		baseCrime = g.uniform(30, 100)
		baseLighting = g.uniform(0.6, 0.85)
	}

	rec.CrimeRatePer100K = round(baseCrime+g.normal(0, 15), 2)
	// Darker streets see more theft.
	rec.TheftFrequencyIndex = round(clip(g.normal(0.5*baseLighting, 0.2), 0.1, 1.0), 2)
	rec.AssaultSeverityIndex = round(g.uniform(1, 10), 2)
	rec.IncidentHotspotProximityKm = round(g.exponential(1.5), 2)

	rec.StreetLightingIndex = round(clip(baseLighting+g.normal(0, 0.1), 0.1, 1.0), 2)
	rec.CCTVDensityScore = round(clip(baseLighting+g.normal(0, 0.1), 0.1, 1.0), 2)
	rec.PoliceResponseTimeMin = round(g.normal(10, 5), 1)
	rec.RefugePointProximityM = 50 + g.rng.IntN(451)
}

func (g *Generator) generateBehavioral(rec *models.LocationRecord) {
	baseTrust := 0.4
	baseTraffic := 0.2
	if rec.AreaClassification.IsMetro() {
		baseTrust = 0.8
		baseTraffic = 0.9
	}

	rec.VisibilityScoreIndex = round(g.uniform(0.1, 1.0), 2)
	rec.ShadowMappingIndexNight = round(clip(1-0.5*rec.StreetLightingIndex+g.normal(0, 0.1), 0.1, 1.0), 2)
	rec.NoisePollutionDB = round(g.normal(70, 15), 1)
	rec.LocalSentimentIndex = round(clip(baseTrust+g.normal(0, 0.2), 0.1, 1.0), 2)
	rec.TemporalFootTrafficDensity = round(clip(baseTraffic+g.normal(0, 0.3), 0.05, 1.0), 2)
	rec.PublicTrustIndex = round(clip(0.9*baseTrust+g.normal(0, 0.1), 0.1, 1.0), 2)
	rec.TraumaCenterProximityKm = round(g.exponential(5.0), 2)
	rec.AnomalyAlert = g.rng.IntN(4) == 0
	rec.SoloTravelerRiskFactor = round(clip(0.5+0.4*(1-baseTrust)+g.normal(0, 0.1), 0.1, 1.0), 2)
}

// computeSafetyScores derives the ground-truth label. Crime rate and police
// response are inverted against the dataset-wide maximum, so the label
// distribution depends on the generated batch as a whole.
func computeSafetyScores(records []models.LocationRecord) {
	var maxCrime, maxResponse float64
	for i := range records {
		maxCrime = math.Max(maxCrime, records[i].CrimeRatePer100K)
		maxResponse = math.Max(maxResponse, records[i].PoliceResponseTimeMin)
	}
	if maxCrime == 0 {
		maxCrime = 1
	}
	if maxResponse == 0 {
		maxResponse = 1
	}

	for i := range records {
		r := &records[i]
		score := (WeightCrime*(1-r.CrimeRatePer100K/maxCrime) +
			WeightLighting*r.StreetLightingIndex +
			WeightSentiment*r.LocalSentimentIndex +
			WeightShadow*(1-r.ShadowMappingIndexNight) +
			WeightResponse*(1-r.PoliceResponseTimeMin/maxResponse) +
			WeightFootTraffic*r.TemporalFootTrafficDensity) * 100
		r.SafetyScore = round(clip(score, 0, 100), 2)
	}
}

func (g *Generator) weightedChoice(classes []models.AreaClass, weights []float64) models.AreaClass {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := g.rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return classes[i]
		}
	}
	return classes[len(classes)-1]
}

func (g *Generator) uniform(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: g.rng}.Rand()
}

func (g *Generator) normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.rng}.Rand()
}

func (g *Generator) exponential(mean float64) float64 {
	return distuv.Exponential{Rate: 1 / mean, Src: g.rng}.Rand()
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
