package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatrasecure/safetyscore/server/models"
)

func TestIsNight(t *testing.T) {
	for _, hour := range []int{20, 21, 23, 0, 3, 6} {
		assert.True(t, IsNight(hour), "hour %d", hour)
	}
	for _, hour := range []int{7, 12, 19} {
		assert.False(t, IsNight(hour), "hour %d", hour)
	}
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend("Saturday"))
	assert.True(t, IsWeekend("Sunday"))
	assert.False(t, IsWeekend("Monday"))
	assert.False(t, IsWeekend(""))
}

func TestHourFromTimeOfDay(t *testing.T) {
	hour, err := HourFromTimeOfDay("22:15:00")
	require.NoError(t, err)
	assert.Equal(t, 22, hour)

	hour, err = HourFromTimeOfDay("05:00:00")
	require.NoError(t, err)
	assert.Equal(t, 5, hour)

	for _, bad := range []string{"", "x", "99:00:00", "ab:00:00", "-1:00:00"} {
		_, err := HourFromTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRecordVectorOrderAndLength(t *testing.T) {
	enc := Encoders{}
	for _, col := range CategoricalColumns {
		enc[col] = &LabelEncoder{}
	}
	enc["state"].Fit([]string{"Goa", "Karnataka"})
	enc["city_district"].Fit([]string{"Bengaluru", "Panaji"})
	enc["area_classification"].Fit([]string{"tourist-hub", "town-center"})

	rec := models.LocationRecord{
		Latitude:           15.49,
		Longitude:          73.82,
		State:              "Karnataka",
		CityDistrict:       "Panaji",
		AreaClassification: models.AreaTouristHub,
		TimeOfDay:          "21:30:00",
		DayOfWeek:          "Saturday",
		CrimeRatePer100K:   42.5,
	}

	vec, err := RecordVector(&rec, enc)
	require.NoError(t, err)
	require.Len(t, vec, len(FeatureColumns()))

	assert.Equal(t, 15.49, vec[0])
	assert.Equal(t, 73.82, vec[1])
	assert.Equal(t, 1.0, vec[2]) // Karnataka
	assert.Equal(t, 1.0, vec[3]) // Panaji
	assert.Equal(t, 0.0, vec[4]) // tourist-hub
	assert.Equal(t, 21.0, vec[5])
	assert.Equal(t, 1.0, vec[6]) // night
	assert.Equal(t, 1.0, vec[7]) // weekend
	assert.Equal(t, 42.5, vec[8])
}

func TestRecordVectorRejectsUnknownCategory(t *testing.T) {
	enc := fitEncoders([]models.LocationRecord{{
		State:              "Goa",
		CityDistrict:       "Panaji",
		AreaClassification: models.AreaTouristHub,
		TimeOfDay:          "12:00:00",
		DayOfWeek:          "Monday",
	}})

	rec := models.LocationRecord{
		State:              "Unknown",
		CityDistrict:       "Panaji",
		AreaClassification: models.AreaTouristHub,
		TimeOfDay:          "12:00:00",
		DayOfWeek:          "Monday",
	}

	_, err := RecordVector(&rec, enc)
	assert.Error(t, err)
}

func TestFeatureColumnsReturnsCopy(t *testing.T) {
	cols := FeatureColumns()
	cols[0] = "mutated"
	assert.Equal(t, "latitude", FeatureColumns()[0])
}
