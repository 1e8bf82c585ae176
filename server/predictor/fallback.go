package predictor

const (
	minScore = 1.0
	maxScore = 10.0

	fallbackBase = 6.5
	nightPenalty = 1.5
	touristBonus = 1.5
)

// knownCities anchors the runtime crime estimate. Crime values are in the
// dataset's per-100k units.
type knownCity struct {
	name      string
	state     string
	lat, lon  float64
	crimeRate float64
}

var knownCities = []knownCity{
	{"Mumbai", "Maharashtra", 19.0760, 72.8777, 95},
	{"Delhi", "Delhi", 28.7041, 77.1025, 120},
	{"Bengaluru", "Karnataka", 12.9716, 77.5946, 80},
	{"Hyderabad", "Telangana", 17.3850, 78.4867, 85},
	{"Goa", "Goa", 15.2993, 74.1240, 45},
	{"Shimla", "Himachal Pradesh", 31.1048, 77.1734, 35},
}

// nearestCity returns the Euclidean-nearest known city. Ties keep the
// earlier entry (strict < comparison).
func nearestCity(lat, lon float64) knownCity {
	best := knownCities[0]
	bestDist := distSq(lat, lon, best.lat, best.lon)
	for _, c := range knownCities[1:] {
		if d := distSq(lat, lon, c.lat, c.lon); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func distSq(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return dLat*dLat + dLon*dLon
}

// fallbackScore is the deterministic rule-based estimator used in degraded
// mode or when a single model prediction fails.
func fallbackScore(lat, lon float64, hour int) float64 {
	score := fallbackBase

	if hour >= 20 || hour <= 6 {
		score -= nightPenalty
	}
	if inTouristBelt(lat, lon) {
		score += touristBonus
	}

	return clamp(score, minScore, maxScore)
}

// inTouristBelt approximates the Goa coast, the Himalayan hill stations and
// the Kerala backwaters with coarse bounding boxes.
func inTouristBelt(lat, lon float64) bool {
	switch {
	case lat >= 14 && lat <= 16 && lon >= 73 && lon <= 75:
		return true
	case lat > 30:
		return true
	case lat >= 8 && lat <= 12 && lon >= 75 && lon <= 77:
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
