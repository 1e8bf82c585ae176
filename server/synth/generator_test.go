package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatrasecure/safetyscore/server/models"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightCrime + WeightLighting + WeightSentiment +
		WeightShadow + WeightResponse + WeightFootTraffic
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGenerateRecordsCount(t *testing.T) {
	g := NewGeneratorAt(42, fixedNow)
	records, err := g.GenerateRecords(500)
	require.NoError(t, err)
	assert.Len(t, records, 500)
}

func TestGenerateRecordsRejectsNonPositiveCount(t *testing.T) {
	g := NewGeneratorAt(42, fixedNow)

	for _, n := range []int{0, -1, -100} {
		records, err := g.GenerateRecords(n)
		assert.Error(t, err)
		assert.Nil(t, records)
	}
}

func TestGeneratedFieldBounds(t *testing.T) {
	g := NewGeneratorAt(7, fixedNow)
	records, err := g.GenerateRecords(1000)
	require.NoError(t, err)

	for i := range records {
		r := &records[i]

		assert.GreaterOrEqual(t, r.Latitude, 10.0)
		assert.LessOrEqual(t, r.Latitude, 30.0)
		assert.GreaterOrEqual(t, r.Longitude, 70.0)
		assert.LessOrEqual(t, r.Longitude, 85.0)

		assert.NotEmpty(t, r.State)
		assert.NotEmpty(t, r.CityDistrict)
		assert.NotEmpty(t, r.TimeOfDay)
		assert.NotEmpty(t, r.DayOfWeek)

		assert.GreaterOrEqual(t, r.TheftFrequencyIndex, 0.1)
		assert.LessOrEqual(t, r.TheftFrequencyIndex, 1.0)
		assert.GreaterOrEqual(t, r.StreetLightingIndex, 0.1)
		assert.LessOrEqual(t, r.StreetLightingIndex, 1.0)
		assert.GreaterOrEqual(t, r.CCTVDensityScore, 0.1)
		assert.LessOrEqual(t, r.CCTVDensityScore, 1.0)
		assert.GreaterOrEqual(t, r.ShadowMappingIndexNight, 0.1)
		assert.LessOrEqual(t, r.ShadowMappingIndexNight, 1.0)
		assert.GreaterOrEqual(t, r.LocalSentimentIndex, 0.1)
		assert.LessOrEqual(t, r.LocalSentimentIndex, 1.0)
		assert.GreaterOrEqual(t, r.TemporalFootTrafficDensity, 0.05)
		assert.LessOrEqual(t, r.TemporalFootTrafficDensity, 1.0)
		assert.GreaterOrEqual(t, r.PublicTrustIndex, 0.1)
		assert.LessOrEqual(t, r.PublicTrustIndex, 1.0)
		assert.GreaterOrEqual(t, r.SoloTravelerRiskFactor, 0.1)
		assert.LessOrEqual(t, r.SoloTravelerRiskFactor, 1.0)

		assert.GreaterOrEqual(t, r.IncidentHotspotProximityKm, 0.0)
		assert.GreaterOrEqual(t, r.TraumaCenterProximityKm, 0.0)
		assert.GreaterOrEqual(t, r.RefugePointProximityM, 50)
		assert.LessOrEqual(t, r.RefugePointProximityM, 500)

		assert.GreaterOrEqual(t, r.SafetyScore, 0.0)
		assert.LessOrEqual(t, r.SafetyScore, 100.0)
	}
}

func TestMetroAreaClassesOnlyInTopMetros(t *testing.T) {
	g := NewGeneratorAt(11, fixedNow)
	records, err := g.GenerateRecords(1000)
	require.NoError(t, err)

	for i := range records {
		r := &records[i]
		metroArea := r.AreaClassification == models.AreaMetroCommercial ||
			r.AreaClassification == models.AreaMetroResidential ||
			r.AreaClassification == models.AreaIndustrial ||
			r.AreaClassification == models.AreaTouristHub

		if topMetros[r.CityDistrict] {
			assert.True(t, metroArea, "city %s got area %s", r.CityDistrict, r.AreaClassification)
		} else {
			assert.False(t, metroArea, "city %s got area %s", r.CityDistrict, r.AreaClassification)
		}
	}
}

func TestDeterministicForFixedSeedAndTime(t *testing.T) {
	a, err := NewGeneratorAt(99, fixedNow).GenerateRecords(200)
	require.NoError(t, err)
	b, err := NewGeneratorAt(99, fixedNow).GenerateRecords(200)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a, err := NewGeneratorAt(1, fixedNow).GenerateRecords(50)
	require.NoError(t, err)
	b, err := NewGeneratorAt(2, fixedNow).GenerateRecords(50)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSafetyScoreRespondsToInputs(t *testing.T) {
	// Two hand-built records differing only in the weighted inputs: the
	// favorable one must score strictly higher.
	records := []models.LocationRecord{
		{
			CrimeRatePer100K:           20,
			StreetLightingIndex:        0.9,
			LocalSentimentIndex:        0.9,
			ShadowMappingIndexNight:    0.2,
			PoliceResponseTimeMin:      5,
			TemporalFootTrafficDensity: 0.8,
		},
		{
			CrimeRatePer100K:           150,
			StreetLightingIndex:        0.2,
			LocalSentimentIndex:        0.2,
			ShadowMappingIndexNight:    0.9,
			PoliceResponseTimeMin:      25,
			TemporalFootTrafficDensity: 0.1,
		},
	}

	computeSafetyScores(records)

	assert.Greater(t, records[0].SafetyScore, records[1].SafetyScore)
	for i := range records {
		assert.GreaterOrEqual(t, records[i].SafetyScore, 0.0)
		assert.LessOrEqual(t, records[i].SafetyScore, 100.0)
	}
}
