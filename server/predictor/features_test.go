package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatrasecure/safetyscore/server/ml"
	"github.com/yatrasecure/safetyscore/server/models"
)

func testEncoders() ml.Encoders {
	enc := ml.Encoders{}
	for _, col := range ml.CategoricalColumns {
		enc[col] = &ml.LabelEncoder{}
	}
	enc["state"].Fit([]string{"Delhi", "Goa", "Maharashtra"})
	enc["city_district"].Fit([]string{"Delhi", "Goa", "Mumbai"})
	enc["area_classification"].Fit([]string{"metro-commercial", "tourist-hub", "town-center"})
	return enc
}

func TestBuildFeaturesLength(t *testing.T) {
	vec, err := buildFeatures(testEncoders(), 19.07, 72.88, 12, nil)
	require.NoError(t, err)
	assert.Len(t, vec, len(ml.FeatureColumns()))
}

func TestBuildFeaturesNightSwitchesRuntimeEstimates(t *testing.T) {
	enc := testEncoders()

	day, err := buildFeatures(enc, 19.07, 72.88, 12, nil)
	require.NoError(t, err)
	night, err := buildFeatures(enc, 19.07, 72.88, 23, nil)
	require.NoError(t, err)

	// Columns: 5 hour, 6 is_night, 12 lighting, 17 shadow, 20 foot traffic.
	assert.Equal(t, 12.0, day[5])
	assert.Equal(t, 0.0, day[6])
	assert.Equal(t, lightingDay, day[12])
	assert.Equal(t, trafficDay, day[20])

	assert.Equal(t, 23.0, night[5])
	assert.Equal(t, 1.0, night[6])
	assert.Equal(t, lightingNight, night[12])
	assert.Equal(t, trafficNight, night[20])

	// Less lighting at night means more shadow.
	assert.Greater(t, night[17], day[17])
}

func TestBuildFeaturesNormalizesHour(t *testing.T) {
	enc := testEncoders()

	a, err := buildFeatures(enc, 19.07, 72.88, 25, nil)
	require.NoError(t, err)
	b, err := buildFeatures(enc, 19.07, 72.88, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, b, a)

	c, err := buildFeatures(enc, 19.07, 72.88, -2, nil)
	require.NoError(t, err)
	assert.Equal(t, 22.0, c[5])
}

func TestBuildFeaturesUsesNearestCityCrime(t *testing.T) {
	enc := testEncoders()

	// Near Delhi: crime column carries Delhi's rate.
	vec, err := buildFeatures(enc, 28.7, 77.1, 12, nil)
	require.NoError(t, err)
	assert.Equal(t, 120.0, vec[8])

	// Near Goa.
	vec, err = buildFeatures(enc, 15.3, 74.1, 12, nil)
	require.NoError(t, err)
	assert.Equal(t, 45.0, vec[8])
}

func TestBuildFeaturesOverrides(t *testing.T) {
	enc := testEncoders()

	crime := 7.0
	cctv := 0.9
	police := 3.5
	weekend := true
	area := models.AreaTouristHub

	vec, err := buildFeatures(enc, 28.7, 77.1, 12, &models.Overrides{
		CrimeRatePer100K:   &crime,
		CCTVDensity:        &cctv,
		PoliceResponseMin:  &police,
		IsWeekend:          &weekend,
		AreaClassification: &area,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, vec[7])  // weekend
	assert.Equal(t, 7.0, vec[8])  // crime
	assert.Equal(t, 0.9, vec[13]) // cctv
	assert.Equal(t, 3.5, vec[14]) // police
	// tourist-hub encodes to 1 in the fitted vocabulary.
	assert.Equal(t, 1.0, vec[4])
}

func TestBuildFeaturesOutOfVocabularyAreaCodesToZero(t *testing.T) {
	enc := testEncoders()

	area := models.AreaClass("floating-bazaar")
	vec, err := buildFeatures(enc, 28.7, 77.1, 12, &models.Overrides{AreaClassification: &area})
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec[4])
}
